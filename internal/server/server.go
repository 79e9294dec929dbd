// Package server は写真生成パイプラインを HTTP で公開します。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxRequestBytes はリクエストボディの上限です。data URI の画像 3 枚を想定しています。
const MaxRequestBytes = 40 << 20

// Pipeline は HTTP 層が呼び出すパイプラインです。pipeline.Orchestrator がこれを満たします。
type Pipeline interface {
	Run(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// Server はルーティングとハンドラーを保持します。
type Server struct {
	pipeline Pipeline
	gatherer prometheus.Gatherer
}

type errorResponse struct {
	Error string       `json:"error"`
	Stage domain.Stage `json:"stage,omitempty"`
}

// New は Server を初期化します。gatherer が nil の場合 /metrics は公開しません。
func New(p Pipeline, gatherer prometheus.Gatherer) (*Server, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	return &Server{pipeline: p, gatherer: gatherer}, nil
}

// Handler はミドルウェアを含むルーターを返します。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/v1/photos:generate", s.handleGenerate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res, err := s.pipeline.Run(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Stage: domain.StageInput})
	case err != nil:
		stage, _ := domain.StageOf(err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Stage: stage})
	case !res.OK():
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: res.Failure.Message, Stage: res.Failure.Stage})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
