package adapters

import (
	"context"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

const (
	// DefaultJPEGQuality はソース画像を再エンコードする際の既定品質です。
	DefaultJPEGQuality = 85
	// DefaultSourceMIME は MIME を判定できない画像に使う既定値です。
	DefaultSourceMIME = "image/jpeg"
)

// GenerativeModel は Gemini クライアントのうち、アダプターが利用する部分です。
// gemini.GenerativeModel はこのインターフェースを満たします。
type GenerativeModel interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// Fetcher は URL から画像を取得します。httpkit のクライアントがこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// PartResolver は ImageRef を送信用の Part に変換します。
type PartResolver interface {
	Part(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error)
}

// withCallTimeout は呼び出し単位のタイムアウトを設定します。0 以下の場合は設定しません。
func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
