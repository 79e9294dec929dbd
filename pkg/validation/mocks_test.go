package validation

import (
	"context"
	"sync"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

// mockAnalyzer は指示文でコラージュ判定と本人照合を振り分けるモックなのだ。
type mockAnalyzer struct {
	compositeFunc func(ctx context.Context, images []domain.ImageRef) (*domain.AnalysisResult, error)
	identityFunc  func(ctx context.Context, images []domain.ImageRef) (*domain.AnalysisResult, error)

	mu    sync.Mutex
	calls []string
	mimes []string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, instruction)
	m.mimes = append(m.mimes, mimeType)
	m.mu.Unlock()

	switch instruction {
	case CompositeCheckPrompt:
		if m.compositeFunc != nil {
			return m.compositeFunc(ctx, images)
		}
		return text(`{"isComposite": false}`), nil
	case IdentityCheckPrompt:
		if m.identityFunc != nil {
			return m.identityFunc(ctx, images)
		}
		return text(`{"isSamePerson": true, "confidence": 0.9}`), nil
	}
	return text(""), nil
}

// text はアダプターと同じく生テキストだけの解析結果を作るのだ。
func text(s string) *domain.AnalysisResult {
	return &domain.AnalysisResult{Text: s}
}
