package fallback

import (
	"context"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, instruction string, images []domain.ImageRef) (*domain.AnalysisResult, error)
	calls       int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error) {
	m.calls++
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, instruction, images)
	}
	return &domain.AnalysisResult{Text: "standing, arms crossed, denim jacket, city street at dusk"}, nil
}

type mockGenerator struct {
	generateFunc func(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error)
	calls        int
	lastSource   domain.ImageRef
	lastPrompt   string
}

func (m *mockGenerator) Generate(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error) {
	m.calls++
	m.lastSource = source
	m.lastPrompt = instruction
	if m.generateFunc != nil {
		return m.generateFunc(ctx, source, instruction)
	}
	return &domain.GeneratedImage{ImageURL: "fallback-image", RequestID: "req-2"}, nil
}
