package pipeline

import (
	"context"
	"sync"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

type generateCall struct {
	source      domain.ImageRef
	instruction string
}

// mockGenerator は呼び出し履歴を残す画像生成モックなのだ。
type mockGenerator struct {
	generateFunc func(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error)

	mu    sync.Mutex
	calls []generateCall
}

func (m *mockGenerator) Generate(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{source: source, instruction: instruction})
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, source, instruction)
	}
	return &domain.GeneratedImage{ImageURL: "g1"}, nil
}

type mockValidator struct {
	validateFunc func(ctx context.Context, candidate, reference domain.ImageRef) (*domain.ValidationOutcome, error)
	calls        int
}

func (m *mockValidator) Validate(ctx context.Context, candidate, reference domain.ImageRef) (*domain.ValidationOutcome, error) {
	m.calls++
	if m.validateFunc != nil {
		return m.validateFunc(ctx, candidate, reference)
	}
	out := domain.NewValidationOutcome(false, true, 0.9, "")
	return &out, nil
}

type mockRegenerator struct {
	regenerateFunc func(ctx context.Context, pose, reference domain.ImageRef) (*domain.FallbackOutcome, error)
	calls          int
}

func (m *mockRegenerator) Regenerate(ctx context.Context, pose, reference domain.ImageRef) (*domain.FallbackOutcome, error) {
	m.calls++
	if m.regenerateFunc != nil {
		return m.regenerateFunc(ctx, pose, reference)
	}
	return &domain.FallbackOutcome{FinalImage: "fallback-image", Confidence: domain.FallbackConfidence}, nil
}

// mockAnalyzer は validation と fallback の実装を組み合わせたテスト用に、指示文ごとに応答を返すのだ。
type mockAnalyzer struct {
	responses map[string]string
	errs      map[string]error

	mu    sync.Mutex
	calls []analyzeCall
}

type analyzeCall struct {
	instruction string
	images      []domain.ImageRef
}

func (m *mockAnalyzer) Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, analyzeCall{instruction: instruction, images: images})
	m.mu.Unlock()
	if err := m.errs[instruction]; err != nil {
		return nil, err
	}
	return &domain.AnalysisResult{Text: m.responses[instruction]}, nil
}

func (m *mockAnalyzer) callsFor(instruction string) []analyzeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []analyzeCall
	for _, c := range m.calls {
		if c.instruction == instruction {
			out = append(out, c)
		}
	}
	return out
}
