package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewGenerationAdapter(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返すのだ", func(t *testing.T) {
		_, err := NewGenerationAdapter(nil, &mockAIClient{}, GenerationConfig{Model: "m"})
		assert.Error(t, err)
		_, err = NewGenerationAdapter(&mockResolver{}, nil, GenerationConfig{Model: "m"})
		assert.Error(t, err)
		_, err = NewGenerationAdapter(&mockResolver{}, &mockAIClient{}, GenerationConfig{})
		assert.Error(t, err)
	})
}

func TestGenerationAdapter_Generate(t *testing.T) {
	ctx := context.Background()
	cfg := GenerationConfig{Model: "gemini-2.5-flash-image", AspectRatio: "3:4"}

	t.Run("成功: 指示文とソース画像がこの順でパーツに入るのだ", func(t *testing.T) {
		resolver := &mockResolver{}
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				require.Len(t, parts, 2)
				assert.Equal(t, "make it golden hour", parts[0].Text)
				assert.Equal(t, []byte("composite"), parts[1].InlineData.Data)
				assert.Equal(t, cfg.Model, model)
				assert.Equal(t, "3:4", opts.AspectRatio)
				return responseWith(
					&genai.Part{Text: "Here is your photo."},
					&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("out")}},
				), nil
			},
		}

		adapter, err := NewGenerationAdapter(resolver, ai, cfg)
		require.NoError(t, err)

		out, err := adapter.Generate(ctx, "composite", "make it golden hour")

		require.NoError(t, err)
		assert.Equal(t, domain.ImageRef("data:image/png;base64,b3V0"), out.ImageURL)
		assert.Equal(t, "Here is your photo.", out.Description)
		assert.Equal(t, "resp-1", out.RequestID)
		assert.Equal(t, []domain.ImageRef{"composite"}, resolver.refs)
	})

	t.Run("FileDataで返ってきた場合はURIを参照として使うのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return responseWith(&genai.Part{FileData: &genai.FileData{FileURI: "https://files.example.com/x.png"}}), nil
			},
		}
		adapter, _ := NewGenerationAdapter(&mockResolver{}, ai, cfg)

		out, err := adapter.Generate(ctx, "c", "i")

		require.NoError(t, err)
		assert.Equal(t, domain.ImageRef("https://files.example.com/x.png"), out.ImageURL)
	})

	t.Run("失敗: AIクライアントのエラーはラップせずに返すのだ", func(t *testing.T) {
		expectedErr := errors.New("503 service unavailable")
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				return nil, expectedErr
			},
		}
		adapter, _ := NewGenerationAdapter(&mockResolver{}, ai, cfg)

		_, err := adapter.Generate(ctx, "c", "i")

		assert.Same(t, expectedErr, err)
	})

	t.Run("失敗: ソース画像が準備できなければ送信しないのだ", func(t *testing.T) {
		resolver := &mockResolver{
			partFunc: func(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error) {
				return nil, errors.New("unsupported ref")
			},
		}
		ai := &mockAIClient{}
		adapter, _ := NewGenerationAdapter(resolver, ai, cfg)

		_, err := adapter.Generate(ctx, "c", "i")

		assert.Error(t, err)
		assert.Equal(t, 0, ai.calls)
	})

	t.Run("失敗: キャンセル済みのctxでは送信しないのだ", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		ai := &mockAIClient{}
		adapter, _ := NewGenerationAdapter(&mockResolver{}, ai, cfg)

		_, err := adapter.Generate(cctx, "c", "i")

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, ai.calls)
	})

	t.Run("呼び出しタイムアウトがctxに設定されるのだ", func(t *testing.T) {
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				deadline, ok := ctx.Deadline()
				assert.True(t, ok)
				assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
				return responseWith(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("x")}}), nil
			},
		}
		adapter, _ := NewGenerationAdapter(&mockResolver{}, ai, GenerationConfig{Model: "m", CallTimeout: time.Minute})

		_, err := adapter.Generate(ctx, "c", "i")
		require.NoError(t, err)
	})

	t.Run("シードはそのままクライアントに渡すのだ", func(t *testing.T) {
		seed := int64(777)
		var got *int64
		ai := &mockAIClient{
			generateFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
				got = opts.Seed
				return responseWith(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("x")}}), nil
			},
		}
		adapter, _ := NewGenerationAdapter(&mockResolver{}, ai, GenerationConfig{Model: "m", Seed: &seed})

		_, err := adapter.Generate(ctx, "c", "i")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(777), *got)
	})
}

func TestParseImageResponse(t *testing.T) {
	t.Run("異常系: FinishReason が SAFETY の場合はエラーなのだ", func(t *testing.T) {
		resp := &gemini.Response{
			RawResponse: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
		}
		_, err := parseImageResponse(resp)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "SAFETY"))
	})

	t.Run("異常系: テキストだけの応答はエラーなのだ", func(t *testing.T) {
		_, err := parseImageResponse(responseWith(&genai.Part{Text: "I cannot do that"}))
		assert.Error(t, err)
	})

	t.Run("異常系: 空のレスポンスはエラーなのだ", func(t *testing.T) {
		_, err := parseImageResponse(nil)
		assert.Error(t, err)
		_, err = parseImageResponse(&gemini.Response{RawResponse: &genai.GenerateContentResponse{}})
		assert.Error(t, err)
	})
}
