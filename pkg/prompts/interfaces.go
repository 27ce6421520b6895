package prompts

import "github.com/shouni/go-diagram-kit/pkg/domain"

// PromptBuilder は、各ステージのプロンプトを構築する契約です。
type PromptBuilder interface {
	// BuildPlanner は、図の種類に応じたプランナープロンプトを生成します。
	BuildPlanner(diagramType domain.DiagramType, sourceContext, caption string) string
	// BuildVisualizer は、図の説明文から画像生成用プロンプトを生成します。
	BuildVisualizer(description string) string
	// BuildCritic は、現在の説明文を含む批評用プロンプトを生成します。
	BuildCritic(sourceContext, caption, description string) string
}
