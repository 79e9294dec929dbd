// Package provider は Gemini API を adapters.GenerativeModel として提供します。
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// contentGenerator は genai.Models のうち、ここで使う呼び出しだけを切り出したものです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client は genai SDK の上に GenerateWithParts を実装します。
type Client struct {
	models contentGenerator
}

// New は API キーから Gemini API 用のクライアントを生成します。
func New(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return &Client{models: c.Models}, nil
}

// GenerateWithParts は parts を 1 つのユーザーターンとして送信します。
// エラーは SDK が返したものをそのまま返します。
func (c *Client) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("parts must not be empty")
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, model, contents, buildConfig(model, opts))
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// buildConfig は GenerateOptions を SDK の設定に変換します。
// 画像モデルにだけ画像出力とアスペクト比を要求します。
func buildConfig(model string, opts gemini.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:    opts.Temperature,
		TopP:           opts.TopP,
		Seed:           seedInt32(opts.Seed),
		SafetySettings: opts.SafetySettings,
	}
	if opts.CandidateCount != nil {
		cfg.CandidateCount = *opts.CandidateCount
	}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if isImageModel(model) {
		cfg.ResponseModalities = []string{"TEXT", "IMAGE"}
		if opts.AspectRatio != "" {
			cfg.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
		}
	}
	return cfg
}

// seedInt32 は *int64 のシードを SDK の *int32 に変換します。
// int32 に収まらない値は警告を出してシードなしで続行します。
func seedInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	if *seed > math.MaxInt32 || *seed < math.MinInt32 {
		slog.Warn("シード値が int32 の範囲外のため指定せずに生成します", "seed", *seed)
		return nil
	}
	v := int32(*seed)
	return &v
}

func isImageModel(model string) bool {
	return strings.Contains(strings.ToLower(model), "image")
}
