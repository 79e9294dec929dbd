// Package textparse は、構造化データが混じることのある自由記述テキストから
// フィールド値を取り出すための純粋関数群です。
//
// 解析は二段階で行います。まずテキスト全体（またはコードフェンス内）を JSON として厳密に読み、
// 読めない場合はフィールド名と値のパターンをテキストから直接探します。
package textparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// Object はテキストを JSON オブジェクトとして解釈できた場合にその内容を返します。
// 失敗しても error は返さず、ok=false となります。
func Object(text string) (map[string]any, bool) {
	for _, candidate := range candidates(text) {
		if !gjson.Valid(candidate) {
			continue
		}
		res := gjson.Parse(candidate)
		if !res.IsObject() {
			continue
		}
		if obj, ok := res.Value().(map[string]any); ok {
			return obj, true
		}
	}
	return nil, false
}

// candidates は厳密解析を試みる順にテキスト候補を返します。
// 全文、コードフェンス内、最初の '{' から最後の '}' まで、の順です。
func candidates(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	out := []string{trimmed}
	if m := fencePattern.FindStringSubmatch(trimmed); len(m) == 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		out = append(out, trimmed[start:end+1])
	}
	return out
}

// lookup はキー名を大文字小文字を区別せずに検索します。keys は優先順です。
func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v, true
		}
		for k, v := range obj {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
	}
	return nil, false
}

// Bool は obj から真偽値を取り出します。"true"/"false" の文字列も受け付けます。
func Bool(obj map[string]any, keys ...string) (bool, bool) {
	v, ok := lookup(obj, keys...)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		return parseBoolWord(b)
	}
	return false, false
}

// Number は obj から数値を取り出します。数値文字列も受け付けます。
func Number(obj map[string]any, keys ...string) (float64, bool) {
	v, ok := lookup(obj, keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// String は obj から文字列を取り出します。
func String(obj map[string]any, keys ...string) (string, bool) {
	v, ok := lookup(obj, keys...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(s), true
	}
}

// ScanBool はテキスト中の `key: true` 形式のパターンから真偽値を回収します（大文字小文字は無視）。
func ScanBool(text string, keys ...string) (bool, bool) {
	m := fieldPattern(keys, `"?(true|false|yes|no)\b`).FindStringSubmatch(text)
	if len(m) != 2 {
		return false, false
	}
	return parseBoolWord(m[1])
}

// ScanNumber はテキスト中の `key: 0.87` 形式のパターンから数値を回収します（大文字小文字は無視）。
func ScanNumber(text string, keys ...string) (float64, bool) {
	m := fieldPattern(keys, `"?(-?\d*\.?\d+)`).FindStringSubmatch(text)
	if len(m) != 2 {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	return f, err == nil
}

func fieldPattern(keys []string, value string) *regexp.Regexp {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	// キーは単語の途中 (mismatch の match など) には一致させない
	return regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_])["']?(?:` + strings.Join(quoted, "|") + `)["']?\s*[:=]\s*` + value)
}

func parseBoolWord(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// Clamp は v を [lo, hi] に収めます。NaN は lo として扱います。
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
