package validation

import (
	"strings"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
	"github.com/shouni/gemini-photo-kit/pkg/textparse"
)

// 解析結果から読むフィールド名。先頭ほど優先されます。
var (
	compositeKeys  = []string{"isComposite", "isCollage", "composite", "collage"}
	identityKeys   = []string{"isSamePerson", "samePerson", "sameIdentity", "match"}
	confidenceKeys = []string{"confidence", "score"}
	notesKeys      = []string{"reasoning", "notes", "explanation", "reason"}
)

const maxNotesLength = 300

// Defaults は本人照合の応答から確信度を読み取れなかったときの既定値です。
// 値は経験的に決められたもので、設定で差し替えられます。
type Defaults struct {
	// MatchConfidence は同一人物と読み取れた場合の既定値です。
	MatchConfidence float64
	// MismatchConfidence は同一人物と読み取れなかった場合の既定値です。
	MismatchConfidence float64
}

// DefaultConfidence は標準の既定確信度です。
var DefaultConfidence = Defaults{MatchConfidence: 0.5, MismatchConfidence: 0.3}

// CompositeVerdict はコラージュ判定の結果です。
type CompositeVerdict struct {
	IsComposite bool
	// Recovered は判定値を応答から読み取れたかどうかです。false の場合 IsComposite は既定値 (false) です。
	Recovered bool
	Notes     string
}

// IdentityVerdict は本人照合の結果です。Confidence は [0,1] に収められています。
type IdentityVerdict struct {
	SamePerson bool
	Confidence float64
	// Defaulted は確信度が応答から読めず既定値を使ったかどうかです。
	Defaulted bool
	Notes     string
}

// ParseComposite はコラージュ判定の応答テキストを解釈します。解釈できなくてもエラーにはなりません。
func ParseComposite(text string) CompositeVerdict {
	obj, _ := textparse.Object(text)
	return compositeFrom(text, obj)
}

// ParseIdentity は本人照合の応答テキストを解釈します。解釈できなくてもエラーにはなりません。
func ParseIdentity(text string, d Defaults) IdentityVerdict {
	obj, _ := textparse.Object(text)
	return identityFrom(text, obj, d)
}

func compositeFrom(text string, obj map[string]any) CompositeVerdict {
	v := CompositeVerdict{Notes: notesFrom(text, obj)}
	if obj != nil {
		v.IsComposite, v.Recovered = textparse.Bool(obj, compositeKeys...)
	}
	if !v.Recovered {
		v.IsComposite, v.Recovered = textparse.ScanBool(text, compositeKeys...)
	}
	return v
}

func identityFrom(text string, obj map[string]any, d Defaults) IdentityVerdict {
	v := IdentityVerdict{Notes: notesFrom(text, obj)}

	var sameFound, confFound bool
	if obj != nil {
		v.SamePerson, sameFound = textparse.Bool(obj, identityKeys...)
		v.Confidence, confFound = textparse.Number(obj, confidenceKeys...)
	}
	if !sameFound {
		v.SamePerson, _ = textparse.ScanBool(text, identityKeys...)
	}
	if !confFound {
		v.Confidence, confFound = textparse.ScanNumber(text, confidenceKeys...)
	}

	if !confFound {
		v.Defaulted = true
		v.Confidence = d.MismatchConfidence
		if v.SamePerson {
			v.Confidence = d.MatchConfidence
		}
	}
	v.Confidence = textparse.Clamp(v.Confidence, 0, 1)
	return v
}

func notesFrom(text string, obj map[string]any) string {
	if obj != nil {
		if s, ok := textparse.String(obj, notesKeys...); ok {
			return truncate(strings.TrimSpace(s))
		}
		return ""
	}
	return truncate(strings.TrimSpace(text))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxNotesLength {
		return s
	}
	return string(r[:maxNotesLength]) + "…"
}

// resultObject は アダプターが付与した構造化結果を優先し、なければテキストから解析します。
func resultObject(res *domain.AnalysisResult) map[string]any {
	if res.Parsed != nil {
		return res.Parsed
	}
	obj, _ := textparse.Object(res.Text)
	return obj
}
