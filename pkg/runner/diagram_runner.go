package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-diagram-kit/pkg/domain"
	"github.com/shouni/go-diagram-kit/pkg/history"
	"github.com/shouni/go-diagram-kit/pkg/pipeline"
	"github.com/shouni/go-diagram-kit/pkg/publisher"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentRuns は同時に実行できるパイプラインの既定数です。
const DefaultMaxConcurrentRuns = 3

// RunOutcome は 1 回の実行結果です。
type RunOutcome struct {
	RunID    string                   `json:"run_id"`
	Result   *domain.PipelineResult   `json:"result"`
	Duration time.Duration            `json:"duration"`
	Files    *publisher.PublishResult `json:"files,omitempty"`
}

// DiagramRunner は入力検証、同時実行数の制限、履歴の記録を行いながらパイプラインを実行します。
type DiagramRunner struct {
	pipeline  Pipeline
	history   HistoryRecorder
	publisher Publisher
	sem       *semaphore.Weighted
	newID     func() string
}

// Option は DiagramRunner の設定を変更します。
type Option func(*DiagramRunner)

// WithHistory は完了した実行を記録する先を設定します。
func WithHistory(h HistoryRecorder) Option {
	return func(r *DiagramRunner) {
		r.history = h
	}
}

// WithPublisher は RunAndSave で使う書き出し先を設定します。
func WithPublisher(p Publisher) Option {
	return func(r *DiagramRunner) {
		r.publisher = p
	}
}

// WithMaxConcurrentRuns は同時実行数の上限を設定します。1 未満は既定値になります。
func WithMaxConcurrentRuns(n int) Option {
	return func(r *DiagramRunner) {
		if n < 1 {
			n = DefaultMaxConcurrentRuns
		}
		r.sem = semaphore.NewWeighted(int64(n))
	}
}

// NewDiagramRunner は依存関係を注入して初期化します。
func NewDiagramRunner(p Pipeline, opts ...Option) *DiagramRunner {
	r := &DiagramRunner{
		pipeline:  p,
		publisher: publisher.NewDiagramPublisher(nil),
		sem:       semaphore.NewWeighted(DefaultMaxConcurrentRuns),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run は入力を検証してからパイプラインを実行し、成功した結果を履歴に記録します。
// 同時実行数が上限に達している場合は空きが出るまで（または ctx が終わるまで）待機します。
func (r *DiagramRunner) Run(ctx context.Context, input domain.PipelineInput, onStatus pipeline.StatusFunc) (*RunOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("実行枠の確保に失敗しました: %w", err)
	}
	defer r.sem.Release(1)

	runID := r.newID()
	logger := slog.With("run_id", runID)
	logger.InfoContext(ctx, "図の生成を開始します", "diagram_type", input.DiagramType, "iterations", input.Iterations)

	start := time.Now()
	result, err := r.pipeline.Run(ctx, input, onStatus)
	if err != nil {
		logger.ErrorContext(ctx, "図の生成に失敗しました", "error", err)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	outcome := &RunOutcome{
		RunID:    runID,
		Result:   result,
		Duration: time.Since(start),
	}
	logger.InfoContext(ctx, "図の生成が完了しました", "duration", outcome.Duration, "trail", len(result.Iterations))

	if r.history != nil {
		if err := r.history.Add(ctx, history.NewRecord(runID, input, result)); err != nil {
			logger.WarnContext(ctx, "履歴の記録に失敗しました", "error", err)
		}
	}
	return outcome, nil
}

// RunAndSave は Run を実行し、結果をファイルに書き出します。
func (r *DiagramRunner) RunAndSave(ctx context.Context, input domain.PipelineInput, outputPath string, saveIterations bool, onStatus pipeline.StatusFunc) (*RunOutcome, error) {
	outcome, err := r.Run(ctx, input, onStatus)
	if err != nil {
		return nil, err
	}

	files, err := r.publisher.Publish(ctx, outcome.Result, publisher.Options{
		OutputPath:     outputPath,
		SaveIterations: saveIterations,
		Title:          input.Caption,
	})
	if err != nil {
		return outcome, fmt.Errorf("成果物の書き出しに失敗しました: %w", err)
	}
	outcome.Files = &files
	return outcome, nil
}
