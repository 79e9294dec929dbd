package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

// Analyzer はポーズ写真の説明文を得るための解析プロバイダー呼び出しです。
type Analyzer interface {
	Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error)
}

// Generator は画像生成プロバイダー呼び出しです。
type Generator interface {
	Generate(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error)
}

// Regenerator は検証に失敗したときの第二の生成戦略です。
// ポーズ写真を文章に置き換え、本人の参照写真だけを入力にして生成し直します。
type Regenerator struct {
	analyzer  Analyzer
	generator Generator
	mimeType  string
}

// NewRegenerator は Regenerator を初期化します。mimeType はポーズ写真の MIME を判定できない場合に使われます。
func NewRegenerator(analyzer Analyzer, generator Generator, mimeType string) (*Regenerator, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Regenerator{
		analyzer:  analyzer,
		generator: generator,
		mimeType:  mimeType,
	}, nil
}

// Regenerate は説明、プロンプト構築、再生成を順に実行します。各段階は前段の出力に依存します。
// 失敗した場合は発生した段階を示す domain.StageError を返します。
func (r *Regenerator) Regenerate(ctx context.Context, pose, reference domain.ImageRef) (*domain.FallbackOutcome, error) {
	description, err := r.DescribePose(ctx, pose)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageDescribe, Err: err}
	}

	prompt, err := BuildPrompt(description)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageDescribe, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &domain.StageError{Stage: domain.StageRegenerate, Err: err}
	}

	// ソースは合成画像ではなく本人の参照写真
	out, err := r.generator.Generate(ctx, reference, prompt)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageRegenerate, Err: err}
	}

	slog.InfoContext(ctx, "フォールバック再生成が完了しました", "prompt_version", PromptVersion, "provider_request_id", out.RequestID)
	return &domain.FallbackOutcome{
		FinalImage:        out.ImageURL,
		PoseDescription:   description,
		Confidence:        domain.FallbackConfidence,
		ProviderRequestID: out.RequestID,
	}, nil
}

// DescribePose はポーズ写真の姿勢・服装・場所・カメラアングルを文章で説明させます。
// 空の説明は再現のしようがないため domain.ErrEmptyDescription を返します。
func (r *Regenerator) DescribePose(ctx context.Context, pose domain.ImageRef) (string, error) {
	res, err := r.analyzer.Analyze(ctx, DescribePosePrompt, []domain.ImageRef{pose}, r.mimeType)
	if err != nil {
		return "", err
	}
	description := strings.TrimSpace(res.Text)
	if description == "" {
		return "", domain.ErrEmptyDescription
	}
	return description, nil
}
