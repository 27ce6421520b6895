package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-diagram-kit/pkg/branding"
	"github.com/shouni/go-diagram-kit/pkg/domain"
	"github.com/shouni/go-diagram-kit/pkg/parser"
	"github.com/shouni/go-diagram-kit/pkg/prompts"
)

const (
	msgPlanning     = "Creating diagram description..."
	msgGenerating   = "Generating diagram image..."
	msgCritiquing   = "Critiquing iteration %d/%d..."
	msgRegenerating = "Regenerating image (iteration %d)..."
	msgBranding     = "Applying branding..."
)

// Orchestrator は プランナー → ビジュアライザー → 批評ループ → ブランディング の順に
// 1 回の図生成を進める司令塔です。内部で並列処理は行いません。
type Orchestrator struct {
	gateway    Gateway
	prompts    prompts.PromptBuilder
	compositor branding.Compositor
}

// NewOrchestrator は Orchestrator を生成します。compositor が nil の場合は何もしない実装を使います。
func NewOrchestrator(gateway Gateway, pb prompts.PromptBuilder, compositor branding.Compositor) (*Orchestrator, error) {
	if gateway == nil {
		return nil, errors.New("pipeline: gateway が指定されていません")
	}
	if pb == nil {
		return nil, errors.New("pipeline: prompt builder が指定されていません")
	}
	if compositor == nil {
		compositor = branding.NopCompositor{}
	}
	return &Orchestrator{
		gateway:    gateway,
		prompts:    pb,
		compositor: compositor,
	}, nil
}

// Run はパイプラインを 1 回実行します。
// onStatus には遷移のたびに同期的に通知され、終端状態（done / error）はちょうど 1 回だけ通知されます。
// ゲートウェイの失敗は実行全体を中断し、途中までの結果は返しません。
func (o *Orchestrator) Run(ctx context.Context, input domain.PipelineInput, onStatus StatusFunc) (*domain.PipelineResult, error) {
	emit := func(status domain.PipelineStatus, message string) {
		if onStatus != nil {
			onStatus(status, message)
		}
	}

	result, err := o.run(ctx, input, emit)
	if err != nil {
		emit(domain.StatusError, err.Error())
		return nil, err
	}
	emit(domain.StatusDone, "")
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, input domain.PipelineInput, emit StatusFunc) (*domain.PipelineResult, error) {
	iterations := max(input.Iterations, 1)
	logger := slog.With("diagram_type", input.DiagramType, "iterations", iterations)

	// 1. 説明文の作成
	emit(domain.StatusPlanning, msgPlanning)
	logger.InfoContext(ctx, "図の説明文を作成します")
	plannerPrompt := o.prompts.BuildPlanner(input.DiagramType, input.SourceContext, input.Caption)
	description, err := o.gateway.GenerateText(ctx, plannerPrompt)
	if err != nil {
		return nil, fmt.Errorf("pipeline: 説明文の作成に失敗しました: %w", err)
	}

	// 2. 初回画像の生成
	emit(domain.StatusGenerating, msgGenerating)
	logger.InfoContext(ctx, "初回の画像を生成します")
	image, err := o.gateway.GenerateImage(ctx, o.prompts.BuildVisualizer(description), input.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("pipeline: 画像の生成に失敗しました: %w", err)
	}

	state := &runState{}
	state.render(description, image, domain.InitialIterationLabel)

	// 3. 批評ループ
	for i := 1; i < iterations; i++ {
		emit(domain.StatusCritiquing, fmt.Sprintf(msgCritiquing, i, iterations-1))
		logger.InfoContext(ctx, "画像を批評します", "iteration", i)

		criticPrompt := o.prompts.BuildCritic(input.SourceContext, input.Caption, state.description)
		raw, err := o.gateway.GenerateTextWithImage(ctx, criticPrompt, state.image.ImageBase64, state.image.MimeType)
		if err != nil {
			return nil, fmt.Errorf("pipeline: 批評 %d 回目に失敗しました: %w", i, err)
		}

		decision, err := parser.ParseCritique(raw)
		if err != nil {
			logger.WarnContext(ctx, "批評応答を解釈できないためこの反復をスキップします", "iteration", i, "error", err)
			continue
		}
		if decision.Converged() {
			logger.InfoContext(ctx, "批評が収束しました", "iteration", i, "suggestions", len(decision.CriticSuggestions))
			break
		}

		revised := *decision.RevisedDescription
		emit(domain.StatusGenerating, fmt.Sprintf(msgRegenerating, i+1))
		logger.InfoContext(ctx, "改訂した説明文で画像を再生成します", "iteration", i+1, "suggestions", len(decision.CriticSuggestions))
		image, err := o.gateway.GenerateImage(ctx, o.prompts.BuildVisualizer(revised), input.AspectRatio)
		if err != nil {
			return nil, fmt.Errorf("pipeline: 画像の再生成 (iteration %d) に失敗しました: %w", i+1, err)
		}
		state.render(revised, image, domain.IterationLabel(i+1))
	}

	// 4. ブランディング
	if input.Branding.Requested() {
		emit(domain.StatusBranding, msgBranding)
		logger.InfoContext(ctx, "ブランディングを適用します", "show_logo", input.Branding.ShowLogo, "show_url", input.Branding.ShowURL)
		state.brand(o.compositor.Apply(ctx, state.image.DataURI(), input.Branding))
	}

	logger.InfoContext(ctx, "図の生成が完了しました", "trail", len(state.trail))
	return state.result(), nil
}
