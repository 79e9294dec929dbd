package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotDataURL は data URI 形式でない文字列を渡したときに返されます。
var ErrNotDataURL = errors.New("not a data URL")

var dataURLPattern = regexp.MustCompile(`^data:([^;,]*)(;[^,]*)?,`)

// IsDataURL は s が data URI かどうかを返します。
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// DecodeDataURL は base64 エンコードされた data URI をバイト列と MIME タイプに分解します。
// MIME タイプが省略されている場合は fallbackMIME を返します。
func DecodeDataURL(s, fallbackMIME string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, "", ErrNotDataURL
	}
	if !strings.Contains(m[2], ";base64") {
		return nil, "", fmt.Errorf("data URL は base64 エンコードである必要があります")
	}

	mimeType := strings.TrimSpace(m[1])
	if mimeType == "" {
		mimeType = fallbackMIME
	}

	payload := s[len(m[0]):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 一部のクライアントはパディングなしで送ってくる
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
			return raw, mimeType, nil
		}
		return nil, "", fmt.Errorf("data URL のデコードに失敗しました: %w", err)
	}
	return data, mimeType, nil
}

// EncodeDataURL はバイト列を base64 の data URI に変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
