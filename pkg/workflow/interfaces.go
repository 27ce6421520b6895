package workflow

import (
	"context"

	"github.com/shouni/go-diagram-kit/pkg/domain"
	"github.com/shouni/go-diagram-kit/pkg/pipeline"
	"github.com/shouni/go-diagram-kit/pkg/runner"
)

// Workflow は、図生成ワークフローの Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildDiagramRunner() (DiagramRunner, error)
	RotateAPIKey(apiKey string)
}

// DiagramRunner は、入力から図を生成し、必要に応じて成果物を保存する責務を持ちます。
type DiagramRunner interface {
	Run(ctx context.Context, input domain.PipelineInput, onStatus pipeline.StatusFunc) (*runner.RunOutcome, error)
	RunAndSave(ctx context.Context, input domain.PipelineInput, outputPath string, saveIterations bool, onStatus pipeline.StatusFunc) (*runner.RunOutcome, error)
}
