package domain

import "strings"

// ImageRef は画像データへの不透明な参照です。
// リモート URL (http/https/gs) か、data URI に埋め込まれたエンコード済みペイロードのどちらかです。
// パイプラインは文字列として扱うだけで、エンコードの解釈はプロバイダーアダプターのみが行います。
type ImageRef string

// IsEmpty は参照が空（空白のみを含む）かどうかを返します。
func (r ImageRef) IsEmpty() bool {
	return strings.TrimSpace(string(r)) == ""
}

// String は参照を文字列として返します。
func (r ImageRef) String() string {
	return string(r)
}

// GenerationRequest は 1 回のパイプライン実行に対する入力です。実行中は変更されません。
// キャンセルは context.Context で表現し、リクエスト自体には含めません。
type GenerationRequest struct {
	CompositeImage ImageRef `json:"compositeImage"`
	ReferenceImage ImageRef `json:"referenceImage,omitempty"` // 指定された場合のみ検証が走る
	PoseImage      ImageRef `json:"poseImage"`
	Instruction    string   `json:"instruction"`
}

// HasReference は検証のトリガーとなる参照写真が指定されているかを返します。
func (r GenerationRequest) HasReference() bool {
	return !r.ReferenceImage.IsEmpty()
}

// Validate はプロバイダー呼び出し前に必須項目をチェックします。
func (r GenerationRequest) Validate() error {
	var missing []string
	if r.CompositeImage.IsEmpty() {
		missing = append(missing, "compositeImage")
	}
	if r.PoseImage.IsEmpty() {
		missing = append(missing, "poseImage")
	}
	if len(missing) > 0 {
		return &InputError{Fields: missing}
	}
	return nil
}

// GeneratedImage は画像生成プロバイダーの応答です。
type GeneratedImage struct {
	ImageURL    ImageRef
	Description string
	RequestID   string
}

// AnalysisResult は解析プロバイダーの応答です。
// Parsed は Text が構造化データとして読めた場合のみセットされます。
type AnalysisResult struct {
	Text   string
	Parsed map[string]any
}
