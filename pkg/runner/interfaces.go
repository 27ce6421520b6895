package runner

import (
	"context"

	"github.com/shouni/go-diagram-kit/pkg/domain"
	"github.com/shouni/go-diagram-kit/pkg/history"
	"github.com/shouni/go-diagram-kit/pkg/pipeline"
	"github.com/shouni/go-diagram-kit/pkg/publisher"
)

// Pipeline は 1 回の図生成を実行する契約です。実装は *pipeline.Orchestrator です。
type Pipeline interface {
	Run(ctx context.Context, input domain.PipelineInput, onStatus pipeline.StatusFunc) (*domain.PipelineResult, error)
}

// HistoryRecorder は完了した実行を記録する契約です。実装は *history.Store です。
type HistoryRecorder interface {
	Add(ctx context.Context, rec *history.Record) error
}

// Publisher は生成結果を書き出す契約です。実装は *publisher.DiagramPublisher です。
type Publisher interface {
	Publish(ctx context.Context, result *domain.PipelineResult, opts publisher.Options) (publisher.PublishResult, error)
}
