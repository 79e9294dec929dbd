package domain

// ValidationOutcome はコラージュ判定と本人照合を合成した検証結果です。
type ValidationOutcome struct {
	Passed          bool    `json:"passed"`
	IsComposite     bool    `json:"isComposite"`
	IdentityMatches bool    `json:"identityMatches"`
	Confidence      float64 `json:"confidence"`
	Notes           string  `json:"notes,omitempty"`
}

// NewValidationOutcome は Passed を二つの判定から導出して ValidationOutcome を組み立てます。
func NewValidationOutcome(isComposite, identityMatches bool, confidence float64, notes string) ValidationOutcome {
	return ValidationOutcome{
		Passed:          !isComposite && identityMatches,
		IsComposite:     isComposite,
		IdentityMatches: identityMatches,
		Confidence:      confidence,
		Notes:           notes,
	}
}

// FallbackConfidence は再生成結果に常に付与される信頼度です。
const FallbackConfidence = 1.0

// FallbackOutcome はフォールバック再生成の結果です。
type FallbackOutcome struct {
	FinalImage        ImageRef
	PoseDescription   string
	Confidence        float64
	ProviderRequestID string
}

// Status は GenerationResult のどちらの形が有効かを示すタグです。
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Failure は失敗したステージと元のエラーメッセージを保持します。
type Failure struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// GenerationResult はパイプラインの最終結果です。
// StatusSucceeded のときは Image、StatusFailed のときは Failure のみが意味を持ちます。
type GenerationResult struct {
	Status         Status             `json:"status"`
	Image          ImageRef           `json:"image,omitempty"`
	Confidence     *float64           `json:"confidence,omitempty"`
	WasRegenerated bool               `json:"wasRegenerated"`
	Validation     *ValidationOutcome `json:"validation,omitempty"`
	Failure        *Failure           `json:"failure,omitempty"`
}

// Succeeded は成功結果を組み立てます。confidence が nil の場合は信頼度を付与しません。
func Succeeded(image ImageRef, confidence *float64, regenerated bool, validation *ValidationOutcome) *GenerationResult {
	return &GenerationResult{
		Status:         StatusSucceeded,
		Image:          image,
		Confidence:     confidence,
		WasRegenerated: regenerated,
		Validation:     validation,
	}
}

// Failed は失敗結果を組み立てます。失敗時に画像は保持しません。
func Failed(stage Stage, err error, validation *ValidationOutcome) *GenerationResult {
	return &GenerationResult{
		Status:     StatusFailed,
		Validation: validation,
		Failure: &Failure{
			Stage:   stage,
			Message: err.Error(),
			Err:     err,
		},
	}
}

// OK は結果が成功かどうかを返します。
func (r *GenerationResult) OK() bool {
	return r != nil && r.Status == StatusSucceeded
}

// Err は失敗結果を error として返します。成功時は nil です。
func (r *GenerationResult) Err() error {
	if r == nil || r.Failure == nil {
		return nil
	}
	return &StageError{Stage: r.Failure.Stage, Err: r.Failure.Err}
}

// Float64 は信頼度フィールド用のポインタを返します。
func Float64(v float64) *float64 {
	return &v
}
