package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/gemini-photo-kit/internal/config"
	"github.com/shouni/gemini-photo-kit/internal/provider"
	"github.com/shouni/gemini-photo-kit/internal/server"
	"github.com/shouni/gemini-photo-kit/pkg/adapters"
	"github.com/shouni/gemini-photo-kit/pkg/fallback"
	"github.com/shouni/gemini-photo-kit/pkg/pipeline"
	"github.com/shouni/gemini-photo-kit/pkg/validation"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

func main() {
	if err := run(); err != nil {
		slog.Error("サーバーの起動に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient, err := provider.New(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}

	reader, closeReader, err := newSourceReader(ctx, cfg.EnableGCSSource)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			slog.Warn("GCS クライアントのクローズに失敗しました", "error", err)
		}
	}()

	source := adapters.NewImageSource(httpkit.New(cfg.HTTPTimeout), reader, adapters.SourceConfig{
		Compress: cfg.CompressSource,
		Quality:  cfg.JPEGQuality,
	})

	generation, err := adapters.NewGenerationAdapter(source, aiClient, adapters.GenerationConfig{
		Model:       cfg.GenerationModel,
		AspectRatio: cfg.AspectRatio,
		CallTimeout: cfg.CallTimeout,
		Seed:        cfg.GenerationSeed,
	})
	if err != nil {
		return err
	}
	analysis, err := adapters.NewAnalysisAdapter(source, aiClient, adapters.AnalysisConfig{
		Model:       cfg.AnalysisModel,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return err
	}

	engine, err := validation.NewEngine(analysis, validation.Config{
		MIMEType: cfg.SourceMIMEType,
		Defaults: &validation.Defaults{
			MatchConfidence:    cfg.MatchDefaultConfidence,
			MismatchConfidence: cfg.MismatchDefaultConfidence,
		},
	})
	if err != nil {
		return err
	}
	regenerator, err := fallback.NewRegenerator(analysis, generation, cfg.SourceMIMEType)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := pipeline.NewMetrics(reg)
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.New(generation, engine, regenerator, metrics)
	if err != nil {
		return err
	}

	srv, err := server.New(orchestrator, reg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.WebAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動します", "addr", cfg.WebAddr, "generation_model", cfg.GenerationModel, "analysis_model", cfg.AnalysisModel)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("シャットダウンします")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newSourceReader は gs:// の画像参照を読むリーダーを用意します。
// 無効な場合は nil を返し、gs:// の参照は ImageSource がエラーにします。
func newSourceReader(ctx context.Context, enabled bool) (remoteio.InputReader, func() error, error) {
	noop := func() error { return nil }
	if !enabled {
		return nil, noop, nil
	}
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, noop, err
	}
	reader, err := factory.InputReader()
	if err != nil {
		_ = factory.Close()
		return nil, noop, err
	}
	slog.Info("gs:// の画像参照を有効にしました")
	return reader, factory.Close, nil
}

func setupLogger(cfg *config.Config) {
	level, _ := config.ParseLevel(cfg.LogLevel)

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(server.NewContextHandler(h)))
}
