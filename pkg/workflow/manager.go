package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-diagram-kit/pkg/branding"
	"github.com/shouni/go-diagram-kit/pkg/config"
	"github.com/shouni/go-diagram-kit/pkg/gemini"
	"github.com/shouni/go-diagram-kit/pkg/pipeline"
	"github.com/shouni/go-diagram-kit/pkg/prompts"
	"github.com/shouni/go-diagram-kit/pkg/runner"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"
)

const cacheCleanupInterval = 15 * time.Minute

// Args は Manager の初期化に必要な依存関係です。nil のものは既定の実装で補われます。
type Args struct {
	Config        config.Config
	HTTPClient    *http.Client      // genai SDK に渡すトランスポート
	Fetcher       httpkit.Requester // ロゴ画像など外部リソースの取得に使うクライアント
	Factory       gemini.Factory    // テスト等でモデルクライアントを差し替える場合に指定
	Compositor    branding.Compositor
	History       runner.HistoryRecorder
	Publisher     runner.Publisher
	PromptBuilder prompts.PromptBuilder
}

// Manager は、ワークフローの各工程を担うコンポーネント群を構築・管理します。
type Manager struct {
	cfg          config.Config
	handle       *gemini.ClientHandle
	gateway      *gemini.Client
	orchestrator *pipeline.Orchestrator
	history      runner.HistoryRecorder
	publisher    runner.Publisher
}

var _ Workflow = (*Manager)(nil)

// New は、設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args Args) (*Manager, error) {
	if err := args.Config.Validate(); err != nil {
		return nil, err
	}
	httpClient := args.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: args.Config.RequestTimeout}
	}

	handle := initializeClientHandle(args.Config.GeminiAPIKey, args.Factory, httpClient)
	gateway, err := gemini.NewClient(handle, gemini.Config{
		TextModel:    args.Config.GeminiModel,
		ImageModel:   args.Config.ImageModel,
		Temperature:  genai.Ptr(args.Config.Temperature),
		RateInterval: args.Config.RateInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	pb, err := initializePromptBuilder(args.PromptBuilder)
	if err != nil {
		return nil, err
	}

	fetcher := args.Fetcher
	if fetcher == nil {
		fetcher = httpkit.New(args.Config.RequestTimeout, httpkit.WithHTTPClient(httpClient))
	}
	compositor := initializeCompositor(args.Compositor, fetcher, args.Config)

	orchestrator, err := pipeline.NewOrchestrator(gateway, pb, compositor)
	if err != nil {
		return nil, fmt.Errorf("パイプラインの初期化に失敗しました: %w", err)
	}

	if !handle.HasCredential() {
		slog.WarnContext(ctx, "GEMINI_API_KEY が未設定です。生成時にエラーになります")
	}

	return &Manager{
		cfg:          args.Config,
		handle:       handle,
		gateway:      gateway,
		orchestrator: orchestrator,
		history:      args.History,
		publisher:    args.Publisher,
	}, nil
}

// BuildDiagramRunner は、図生成を担当する Runner を作成します。
func (m *Manager) BuildDiagramRunner() (DiagramRunner, error) {
	opts := []runner.Option{runner.WithMaxConcurrentRuns(m.cfg.MaxConcurrentRuns)}
	if m.history != nil {
		opts = append(opts, runner.WithHistory(m.history))
	}
	if m.publisher != nil {
		opts = append(opts, runner.WithPublisher(m.publisher))
	}
	return runner.NewDiagramRunner(m.orchestrator, opts...), nil
}

// Orchestrator は構築済みのパイプラインを返します。
func (m *Manager) Orchestrator() *pipeline.Orchestrator {
	return m.orchestrator
}

// RotateAPIKey は API キーを差し替えます。次の呼び出しから新しいクライアントが使われます。
func (m *Manager) RotateAPIKey(apiKey string) {
	m.handle.Rotate(apiKey)
	slog.Info("API キーを差し替えました")
}

// initializeClientHandle はモデルクライアントのハンドルを初期化します。
// factory が nil の場合は genai SDK を使う既定のファクトリを使います。
func initializeClientHandle(apiKey string, factory gemini.Factory, httpClient *http.Client) *gemini.ClientHandle {
	if factory == nil {
		factory = gemini.NewGenaiFactory(httpClient)
	}
	return gemini.NewClientHandle(apiKey, factory)
}

// initializePromptBuilder は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePromptBuilder(pb prompts.PromptBuilder) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}

	builder, err := prompts.NewTemplateBuilder()
	if err != nil {
		return nil, fmt.Errorf("TemplateBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}

// initializeCompositor は Compositor を初期化します。
// nil の場合は、ロゴ画像キャッシュを持つ OverlayCompositor を新規作成します。
func initializeCompositor(c branding.Compositor, fetcher httpkit.Requester, cfg config.Config) branding.Compositor {
	if c != nil {
		return c
	}
	logoCache := cache.New(cfg.LogoTTL, cacheCleanupInterval)
	return branding.NewOverlayCompositor(branding.NewLogoResolver(fetcher, logoCache, cfg.LogoTTL))
}
