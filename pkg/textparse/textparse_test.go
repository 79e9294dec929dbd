package textparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	t.Run("全文が JSON の場合はそのまま読めるのだ", func(t *testing.T) {
		obj, ok := Object(`{"isSamePerson": true, "confidence": 0.87}`)
		require.True(t, ok)
		assert.Equal(t, true, obj["isSamePerson"])
		assert.Equal(t, 0.87, obj["confidence"])
	})

	t.Run("コードフェンスで囲まれた JSON も読めるのだ", func(t *testing.T) {
		obj, ok := Object("Here you go:\n```json\n{\"isCollage\": false}\n```\n")
		require.True(t, ok)
		assert.Equal(t, false, obj["isCollage"])
	})

	t.Run("前後に文章がある場合は波括弧の範囲を試すのだ", func(t *testing.T) {
		obj, ok := Object(`Result: {"match": "yes"} -- done`)
		require.True(t, ok)
		assert.Equal(t, "yes", obj["match"])
	})

	t.Run("構造化データがなければ ok=false を返すのだ", func(t *testing.T) {
		for _, text := range []string{"", "same person, looks good", "[1,2,3]", `{"broken": `} {
			_, ok := Object(text)
			assert.False(t, ok, text)
		}
	})
}

func TestFieldAccessors(t *testing.T) {
	obj := map[string]any{
		"IsSamePerson": "true",
		"confidence":   "0.42",
		"score":        0.9,
		"reasoning":    "same jawline",
	}

	b, ok := Bool(obj, "isSamePerson")
	assert.True(t, ok)
	assert.True(t, b)

	n, ok := Number(obj, "confidence")
	assert.True(t, ok)
	assert.Equal(t, 0.42, n)

	n, ok = Number(obj, "missing", "score")
	assert.True(t, ok)
	assert.Equal(t, 0.9, n)

	s, ok := String(obj, "notes", "reasoning")
	assert.True(t, ok)
	assert.Equal(t, "same jawline", s)

	_, ok = Bool(obj, "confidence")
	assert.False(t, ok, "数値文字列は真偽値として扱わないのだ")
}

func TestScan(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantBool  bool
		boolFound bool
		wantNum   float64
		numFound  bool
	}{
		{"壊れた JSON", `{"isSamePerson": true, "confidence": 0.8`, true, true, 0.8, true},
		{"大文字小文字の違い", "ISSAMEPERSON = False; Confidence: .35", false, true, 0.35, true},
		{"キーワードなし", "same person, looks good", false, false, 0, false},
		{"整数の信頼度", "isSamePerson: yes, confidence: 1", true, true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := ScanBool(tt.text, "isSamePerson")
			assert.Equal(t, tt.boolFound, ok)
			assert.Equal(t, tt.wantBool, b)

			n, ok := ScanNumber(tt.text, "confidence")
			assert.Equal(t, tt.numFound, ok)
			assert.Equal(t, tt.wantNum, n)
		})
	}
}

func TestScan_WholeKeyOnly(t *testing.T) {
	t.Run("別の単語の一部に含まれるキーには一致しないのだ", func(t *testing.T) {
		_, ok := ScanBool("mismatch: true", "match")
		assert.False(t, ok)
		_, ok = ScanBool("notComposite=yes", "composite")
		assert.False(t, ok)
		_, ok = ScanNumber("overconfidence: 0.9", "confidence")
		assert.False(t, ok)
	})

	t.Run("引用符や記号の直後のキーには一致するのだ", func(t *testing.T) {
		b, ok := ScanBool(`{"match": true`, "match")
		assert.True(t, ok)
		assert.True(t, b)

		b, ok = ScanBool("(match: no)", "match")
		assert.True(t, ok)
		assert.False(t, b)
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.2, 0, 1))
	assert.Equal(t, 1.0, Clamp(87, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
}
