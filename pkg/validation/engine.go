package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
)

// Analyzer は解析プロバイダーへの呼び出しです。adapters.AnalysisAdapter がこれを満たします。
type Analyzer interface {
	Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error)
}

// Config は Engine の設定です。
type Config struct {
	// MIMEType は参照から MIME を判定できない画像に使う値です。
	MIMEType string
	// Defaults は確信度を読み取れなかった場合の既定値です。nil の場合は DefaultConfidence を使います。
	Defaults *Defaults
}

// Engine は生成結果に対してコラージュ判定と本人照合を並行に実行し、一つの判定にまとめます。
type Engine struct {
	analyzer Analyzer
	cfg      Config
	defaults Defaults
}

// NewEngine は Engine を初期化します。
func NewEngine(analyzer Analyzer, cfg Config) (*Engine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	defaults := DefaultConfidence
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}
	return &Engine{analyzer: analyzer, cfg: cfg, defaults: defaults}, nil
}

// Validate は candidate が合成画像でなく、かつ reference と同一人物かを判定します。
// 二つの判定は独立しているため同時に実行します。どちらかの呼び出しが失敗した場合は
// もう一方を中断してエラーを返します（解釈できない応答は既定値で補い、エラーにはしません）。
func (e *Engine) Validate(ctx context.Context, candidate, reference domain.ImageRef) (*domain.ValidationOutcome, error) {
	var (
		composite CompositeVerdict
		identity  IdentityVerdict
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.DetectComposite(gctx, candidate)
		if err != nil {
			return fmt.Errorf("collage check: %w", err)
		}
		composite = v
		return nil
	})
	g.Go(func() error {
		v, err := e.CompareIdentity(gctx, candidate, reference)
		if err != nil {
			return fmt.Errorf("identity check: %w", err)
		}
		identity = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := domain.NewValidationOutcome(composite.IsComposite, identity.SamePerson, identity.Confidence, joinNotes(composite, identity))
	slog.InfoContext(ctx, "生成結果の検証が完了しました",
		"passed", outcome.Passed,
		"is_composite", outcome.IsComposite,
		"identity_matches", outcome.IdentityMatches,
		"confidence", outcome.Confidence,
		"confidence_defaulted", identity.Defaulted,
		"prompt_version", PromptVersion,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &outcome, nil
}

// DetectComposite は image が並べた合成画像のままかどうかを判定します。
func (e *Engine) DetectComposite(ctx context.Context, image domain.ImageRef) (CompositeVerdict, error) {
	res, err := e.analyzer.Analyze(ctx, CompositeCheckPrompt, []domain.ImageRef{image}, e.cfg.MIMEType)
	if err != nil {
		return CompositeVerdict{}, err
	}
	v := compositeFrom(res.Text, resultObject(res))
	if !v.Recovered {
		slog.WarnContext(ctx, "コラージュ判定の応答を解釈できませんでした。合成画像ではないとみなします", "text", truncate(res.Text))
	}
	return v, nil
}

// CompareIdentity は candidate と reference が同一人物かどうかと、その確信度を判定します。
func (e *Engine) CompareIdentity(ctx context.Context, candidate, reference domain.ImageRef) (IdentityVerdict, error) {
	res, err := e.analyzer.Analyze(ctx, IdentityCheckPrompt, []domain.ImageRef{reference, candidate}, e.cfg.MIMEType)
	if err != nil {
		return IdentityVerdict{}, err
	}
	return identityFrom(res.Text, resultObject(res), e.defaults), nil
}

func joinNotes(c CompositeVerdict, i IdentityVerdict) string {
	var parts []string
	if c.Notes != "" {
		parts = append(parts, "composite: "+c.Notes)
	}
	if i.Notes != "" {
		parts = append(parts, "identity: "+i.Notes)
	}
	return strings.Join(parts, "; ")
}
