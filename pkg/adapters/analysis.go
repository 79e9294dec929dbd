package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
	"github.com/shouni/gemini-photo-kit/pkg/textparse"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// AnalysisConfig は画像解析アダプターの設定です。
type AnalysisConfig struct {
	Model       string
	CallTimeout time.Duration
}

// AnalysisAdapter は 1 枚以上の画像と指示文をマルチモーダル解析サービスに送り、テキストを返すアダプターです。
type AnalysisAdapter struct {
	source   PartResolver
	aiClient GenerativeModel
	cfg      AnalysisConfig
}

// NewAnalysisAdapter は依存関係を注入して AnalysisAdapter を初期化します。
func NewAnalysisAdapter(source PartResolver, aiClient GenerativeModel, cfg AnalysisConfig) (*AnalysisAdapter, error) {
	if source == nil {
		return nil, fmt.Errorf("source (PartResolver) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (GenerativeModel) is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("analysis model name is required")
	}
	return &AnalysisAdapter{
		source:   source,
		aiClient: aiClient,
		cfg:      cfg,
	}, nil
}

// Analyze は画像群を指示文とともに解析し、応答テキストを返します。
// mimeType は参照からMIMEを判定できない画像に使われます。
// 応答が構造化データとして読めた場合は Parsed にセットし、読めなくてもエラーにはしません。
func (a *AnalysisAdapter) Analyze(ctx context.Context, instruction string, images []domain.ImageRef, mimeType string) (*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = DefaultSourceMIME
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, &genai.Part{Text: instruction})
	for i, ref := range images {
		imgPart, err := a.source.Part(ctx, ref, mimeType)
		if err != nil {
			return nil, fmt.Errorf("解析対象の画像 #%d の準備に失敗しました: %w", i+1, err)
		}
		parts = append(parts, imgPart)
	}

	callCtx, cancel := withCallTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	resp, err := a.aiClient.GenerateWithParts(callCtx, a.cfg.Model, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, err
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{Text: text}
	if obj, ok := textparse.Object(text); ok {
		result.Parsed = obj
	} else {
		slog.DebugContext(ctx, "解析結果は構造化データではありませんでした", "model", a.cfg.Model, "length", len(text))
	}
	return result, nil
}

// extractText は最初の候補からテキストパーツを連結して返します。思考パーツは含めません。
func extractText(resp *gemini.Response) (string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return "", fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}
	candidate := resp.RawResponse.Candidates[0]

	var b strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				b.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("解析が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}
	return text, nil
}
