package adapters

import (
	"bytes"
	"context"
	"io"

	"github.com/shouni/gemini-photo-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// PNGの最小構成バイナリ（シグネチャ含む）
var validPng = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

// mockAIClient は GenerativeModel のテスト用モックなのだ。
type mockAIClient struct {
	generateFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	calls        int
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, parts, opts)
	}
	return nil, nil
}

// mockResolver は PartResolver のテスト用モックなのだ。
type mockResolver struct {
	partFunc func(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error)
	refs     []domain.ImageRef
}

func (m *mockResolver) Part(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error) {
	m.refs = append(m.refs, ref)
	if m.partFunc != nil {
		return m.partFunc(ctx, ref, fallbackMIME)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte(ref)}}, nil
}

type mockFetcher struct {
	data []byte
	err  error
	urls []string
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.urls = append(m.urls, url)
	return m.data, m.err
}

type mockReader struct {
	data []byte
	err  error
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

// responseWith は指定したパーツを持つ候補 1 件のレスポンスを作るヘルパーなのだ。
func responseWith(parts ...*genai.Part) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			ResponseID: "resp-1",
			Candidates: []*genai.Candidate{
				{
					Content:      &genai.Content{Parts: parts},
					FinishReason: genai.FinishReasonStop,
				},
			},
		},
	}
}
