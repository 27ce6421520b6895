package builder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/go-diagram-kit/internal/config"
	"github.com/shouni/go-diagram-kit/internal/prompt"
	"github.com/shouni/go-diagram-kit/pkg/history"
	"github.com/shouni/go-diagram-kit/pkg/publisher"
	"github.com/shouni/go-diagram-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/httpkit"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options  config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	History  *history.Store         // History は完了した実行の保存先です。無効な場合は nil です。
	Workflow *workflow.Manager      // Workflow は Runner を構築するマネージャーです。
}

// NewAppContext は設定から AppContext を構築します。
// 履歴を開けない場合は警告を出して履歴なしで続行します。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	libCfg := cfg.LibraryConfig()

	var store *history.Store
	if !cfg.Options.NoHistory && libCfg.HistoryPath != "" {
		s, err := OpenHistory(cfg)
		if err != nil {
			slog.WarnContext(ctx, "履歴を開けないため記録せずに続行します", "error", err)
		} else {
			store = s
		}
	}

	pb, err := prompt.NewPromptBuilder(cfg.Options.PromptsFile)
	if err != nil {
		return nil, err
	}

	args := workflow.Args{
		Config:        libCfg,
		HTTPClient:    &http.Client{Timeout: libCfg.RequestTimeout},
		Fetcher:       httpkit.New(libCfg.RequestTimeout),
		PromptBuilder: pb,
		Publisher:     publisher.NewDiagramPublisher(publisher.LocalWriter{}),
	}
	if store != nil {
		args.History = store
	}

	manager, err := workflow.New(ctx, args)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		History:  store,
		Workflow: manager,
	}, nil
}

// OpenHistory は設定された SQLite ファイルで履歴ストアを開きます。
func OpenHistory(cfg *config.Config) (*history.Store, error) {
	libCfg := cfg.LibraryConfig()
	return history.Open(libCfg.HistoryPath, libCfg.HistoryLimit)
}

// Close は保持しているリソースを解放します。
func (a *AppContext) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
