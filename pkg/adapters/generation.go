package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
	"github.com/shouni/gemini-photo-kit/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenerationConfig は画像生成アダプターの設定です。
type GenerationConfig struct {
	Model       string
	AspectRatio string
	// CallTimeout はプロバイダー呼び出し 1 回あたりの上限です。0 の場合は無制限です。
	CallTimeout time.Duration
	// Seed を指定すると生成結果を再現しやすくなります。nil の場合はプロバイダー任せです。
	Seed *int64
}

// GenerationAdapter はソース画像と指示文を画像合成サービスに送り、結果画像の参照を返すアダプターです。
// リトライやキャッシュは行いません。
type GenerationAdapter struct {
	source   PartResolver
	aiClient GenerativeModel
	cfg      GenerationConfig
}

// NewGenerationAdapter は依存関係を注入して GenerationAdapter を初期化します。
func NewGenerationAdapter(source PartResolver, aiClient GenerativeModel, cfg GenerationConfig) (*GenerationAdapter, error) {
	if source == nil {
		return nil, fmt.Errorf("source (PartResolver) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (GenerativeModel) is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("generation model name is required")
	}
	return &GenerationAdapter{
		source:   source,
		aiClient: aiClient,
		cfg:      cfg,
	}, nil
}

// Generate はソース画像と指示文から画像を 1 枚生成します。
// 通信エラーはラップせずにそのまま返すので、呼び出し側でキャンセルと区別できます。
func (a *GenerationAdapter) Generate(ctx context.Context, source domain.ImageRef, instruction string) (*domain.GeneratedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imgPart, err := a.source.Part(ctx, source, DefaultSourceMIME)
	if err != nil {
		return nil, fmt.Errorf("ソース画像の準備に失敗しました: %w", err)
	}

	parts := []*genai.Part{
		{Text: instruction},
		imgPart,
	}
	opts := gemini.GenerateOptions{
		AspectRatio: a.cfg.AspectRatio,
		Seed:        a.cfg.Seed,
	}

	callCtx, cancel := withCallTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.aiClient.GenerateWithParts(callCtx, a.cfg.Model, parts, opts)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "画像生成の応答を受信しました", "model", a.cfg.Model, "elapsed_ms", time.Since(start).Milliseconds())

	return parseImageResponse(resp)
}

// parseImageResponse は Gemini のレスポンスから最初の画像とテキストを取り出します。
func parseImageResponse(resp *gemini.Response) (*domain.GeneratedImage, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.RawResponse.Candidates[0]
	out := &domain.GeneratedImage{RequestID: resp.RawResponse.ResponseID}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil && len(part.InlineData.Data) > 0 && out.ImageURL == "":
				out.ImageURL = domain.ImageRef(imgutil.EncodeDataURL(part.InlineData.MIMEType, part.InlineData.Data))
			case part.FileData != nil && part.FileData.FileURI != "" && out.ImageURL == "":
				out.ImageURL = domain.ImageRef(part.FileData.FileURI)
			case part.Text != "" && !part.Thought:
				text.WriteString(part.Text)
			}
		}
		out.Description = strings.TrimSpace(text.String())
	}

	if out.ImageURL != "" {
		return out, nil
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}

	return nil, fmt.Errorf("画像データが見つかりませんでした")
}
