package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest は必須項目の欠落など、入力そのものの誤りを表します。
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrCanceled はユーザー操作によるキャンセルを表します。汎用的な失敗とは区別されます。
	ErrCanceled = errors.New("generation cancelled by user")
	// ErrEmptyDescription はポーズ解析が空のテキストを返したことを表します。
	ErrEmptyDescription = errors.New("pose description is empty")
)

// Stage はパイプライン内の処理段階です。
type Stage string

const (
	StageInput      Stage = "input"
	StageGenerate   Stage = "generate"
	StageValidate   Stage = "validate"
	StageDescribe   Stage = "describe"
	StageRegenerate Stage = "regenerate"
)

// InputError は欠落している必須フィールドを列挙します。
type InputError struct {
	Fields []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: missing required field(s): %s", ErrInvalidRequest, strings.Join(e.Fields, ", "))
}

func (e *InputError) Unwrap() error {
	return ErrInvalidRequest
}

// StageError は発生元のステージを付与したエラーです。元のメッセージはそのまま保持されます。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf はエラーチェーン中の最も外側の StageError のステージを返します。
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// Canceled は ctx のキャンセル原因を ErrCanceled と結合したエラーを返します。
func Canceled(cause error) error {
	if cause == nil {
		return ErrCanceled
	}
	if errors.Is(cause, ErrCanceled) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

// IsCanceled は err がユーザーキャンセルに由来するかを判定します。
// 呼び出し単位のタイムアウト (context.DeadlineExceeded) はキャンセルとして扱いません。
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}
