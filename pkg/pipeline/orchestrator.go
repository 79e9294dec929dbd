package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-photo-kit/pkg/domain"
)

// Orchestrator は写真生成パイプラインの司令塔です。
// 生成、（参照写真があれば）検証、（検証に落ちれば）フォールバック再生成を順に実行します。
// 状態は持たないため、複数のリクエストから同時に利用できます。
type Orchestrator struct {
	generator   Generator
	validator   Validator
	regenerator Regenerator
	metrics     *Metrics
}

// New は Orchestrator を初期化します。metrics は nil でも構いません。
func New(generator Generator, validator Validator, regenerator Regenerator, metrics *Metrics) (*Orchestrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if regenerator == nil {
		return nil, fmt.Errorf("regenerator is required")
	}
	return &Orchestrator{
		generator:   generator,
		validator:   validator,
		regenerator: regenerator,
		metrics:     metrics,
	}, nil
}

// Run はパイプラインを 1 回実行します。
//
// 入力エラーとキャンセルは error として返します（キャンセルは domain.IsCanceled で判別できます）。
// プロバイダーの失敗は error ではなく StatusFailed の結果として返し、失敗したステージと元のメッセージを保持します。
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest) (result *domain.GenerationResult, err error) {
	start := time.Now()
	defer func() {
		o.metrics.observeRun(runOutcome(result, err), time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		slog.WarnContext(ctx, "リクエストが不正です", "error", err)
		return nil, err
	}

	// 1. 合成画像から生成
	var first *domain.GeneratedImage
	if err := o.stage(domain.StageGenerate, func() (err error) {
		first, err = o.generator.Generate(ctx, req.CompositeImage, req.Instruction)
		return err
	}); err != nil {
		return o.fail(ctx, domain.StageGenerate, err, nil)
	}

	// 2. 参照写真がなければ検証しない
	if !req.HasReference() {
		slog.InfoContext(ctx, "参照写真がないため検証をスキップします", "provider_request_id", first.RequestID)
		return domain.Succeeded(first.ImageURL, nil, false, nil), nil
	}

	// 3. 検証
	if err := ctx.Err(); err != nil {
		return o.fail(ctx, domain.StageValidate, err, nil)
	}
	var outcome *domain.ValidationOutcome
	if err := o.stage(domain.StageValidate, func() (err error) {
		outcome, err = o.validator.Validate(ctx, first.ImageURL, req.ReferenceImage)
		return err
	}); err != nil {
		return o.fail(ctx, domain.StageValidate, err, nil)
	}

	// 4. 合格ならそのまま返す
	if outcome.Passed {
		return domain.Succeeded(first.ImageURL, domain.Float64(outcome.Confidence), false, outcome), nil
	}

	// 5. 不合格ならフォールバック再生成
	slog.InfoContext(ctx, "検証に失敗したためフォールバック再生成を行います",
		"is_composite", outcome.IsComposite,
		"identity_matches", outcome.IdentityMatches,
		"confidence", outcome.Confidence,
	)
	if err := ctx.Err(); err != nil {
		return o.fail(ctx, domain.StageDescribe, err, outcome)
	}
	var fb *domain.FallbackOutcome
	if err := o.stage(domain.StageRegenerate, func() (err error) {
		fb, err = o.regenerator.Regenerate(ctx, req.PoseImage, req.ReferenceImage)
		return err
	}); err != nil {
		return o.fail(ctx, domain.StageRegenerate, err, outcome)
	}

	return domain.Succeeded(fb.FinalImage, domain.Float64(fb.Confidence), true, outcome), nil
}

// GeneratePhotoWithValidation は呼び出し側の窓口です。Run と同じ処理を行い、
// 失敗結果も error として返します（結果自体も返すので検証内容は参照できます）。
func (o *Orchestrator) GeneratePhotoWithValidation(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	res, err := o.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, res.Err()
	}
	return res, nil
}

// stage は 1 ステージを実行し、所要時間を記録します。
func (o *Orchestrator) stage(stage domain.Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	o.metrics.observeStage(stage, stageResult(err), time.Since(start))
	return err
}

// fail はステージのエラーを、キャンセルなら error に、それ以外なら失敗結果に変換します。
// エラーが StageError を含む場合はその段階を優先します。
func (o *Orchestrator) fail(ctx context.Context, stage domain.Stage, err error, validation *domain.ValidationOutcome) (*domain.GenerationResult, error) {
	cause := err
	var se *domain.StageError
	if errors.As(err, &se) {
		stage, cause = se.Stage, se.Err
	}

	if domain.IsCanceled(err) || errors.Is(ctx.Err(), context.Canceled) {
		slog.InfoContext(ctx, "ユーザー操作によりパイプラインを中断しました", "stage", stage)
		return nil, domain.Canceled(&domain.StageError{Stage: stage, Err: cause})
	}

	slog.ErrorContext(ctx, "パイプラインのステージが失敗しました", "stage", stage, "error", cause)
	return domain.Failed(stage, cause, validation), nil
}
