package pipeline

import (
	"context"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

// Generator は画像生成プロバイダーのアダプターです。
type Generator interface {
	Generate(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error)
}

// Validator は生成結果の検証を行います。validation.Engine がこれを満たします。
type Validator interface {
	Validate(ctx context.Context, candidate, reference domain.ImageRef) (*domain.ValidationOutcome, error)
}

// Regenerator は検証失敗時のフォールバック再生成を行います。fallback.Regenerator がこれを満たします。
type Regenerator interface {
	Regenerate(ctx context.Context, pose, reference domain.ImageRef) (*domain.FallbackOutcome, error)
}
