package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
	"github.com/shouni/gemini-photo-kit/pkg/imgutil"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"google.golang.org/genai"
)

// SourceConfig は ImageSource の動作設定です。
type SourceConfig struct {
	// Compress が true の場合、JPEG 再エンコードで小さくなる画像は置き換えて送信します。
	Compress bool
	// Quality は JPEG 再エンコード時の品質です。
	Quality int
}

// ImageSource は ImageRef を解釈して genai.Part (InlineData) に変換するコンポーネントです。
// data URI、http/https URL、gs:// の三種類を扱います。結果はキャッシュしません。
type ImageSource struct {
	fetcher Fetcher
	reader  remoteio.InputReader
	cfg     SourceConfig
}

// NewImageSource は依存関係を注入して ImageSource を生成します。
// fetcher が nil の場合は http/https の参照を、reader が nil の場合は gs:// の参照を拒否します。
func NewImageSource(fetcher Fetcher, reader remoteio.InputReader, cfg SourceConfig) *ImageSource {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultJPEGQuality
	}
	return &ImageSource{
		fetcher: fetcher,
		reader:  reader,
		cfg:     cfg,
	}
}

// Part は参照先の画像を取得し、送信用の Part に変換します。
// 取得できない場合や画像でない場合はエラーを返します。
func (s *ImageSource) Part(ctx context.Context, ref domain.ImageRef, fallbackMIME string) (*genai.Part, error) {
	data, declaredMIME, err := s.load(ctx, ref.String(), fallbackMIME)
	if err != nil {
		return nil, err
	}

	mimeType, err := resolveMIME(data, declaredMIME, fallbackMIME)
	if err != nil {
		return nil, err
	}

	if s.cfg.Compress {
		if shrunk, jpegMIME, ok := imgutil.ShrinkForUpload(data, s.cfg.Quality); ok {
			slog.DebugContext(ctx, "ソース画像をJPEGに再エンコードしました", "before", len(data), "after", len(shrunk))
			data, mimeType = shrunk, jpegMIME
		}
	}

	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

func (s *ImageSource) load(ctx context.Context, raw, fallbackMIME string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, "", fmt.Errorf("画像参照が空です")

	case imgutil.IsDataURL(raw):
		return imgutil.DecodeDataURL(raw, fallbackMIME)

	case strings.HasPrefix(raw, "gs://"):
		if s.reader == nil {
			return nil, "", fmt.Errorf("gs:// の参照を読み込むリーダーが設定されていません: %s", raw)
		}
		rc, err := s.reader.Open(ctx, raw)
		if err != nil {
			return nil, "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		return data, "", err

	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		if s.fetcher == nil {
			return nil, "", fmt.Errorf("HTTPクライアントが設定されていません: %s", raw)
		}
		if safe, err := IsSafeURL(raw); err != nil || !safe {
			return nil, "", fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		data, err := s.fetcher.FetchBytes(ctx, raw)
		return data, "", err
	}

	return nil, "", fmt.Errorf("未対応の画像参照形式です")
}

// resolveMIME はバイト列から判定した MIME を優先し、判定できない場合は宣言値、フォールバックの順で採用します。
func resolveMIME(data []byte, declared, fallback string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("画像データが空です")
	}
	for _, candidate := range []string{http.DetectContentType(data), declared, fallback} {
		if strings.HasPrefix(candidate, "image/") {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("MIMEタイプが画像ではありません (detected: %s)", http.DetectContentType(data))
}

// IsSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func IsSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP

	// 1. IPアドレスが直接指定されているか確認
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		// 2. ホスト名の場合、すべての IP を取得する
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
