package prompts

import (
	_ "embed"
)

// テンプレートの種類を表すキーです。YAML による上書き時のキーとしても使います。
const (
	KindPlanner         = "planner"
	KindLinkedInPlanner = "linkedin_planner"
	KindVisualizer      = "visualizer"
	KindCritic          = "critic"
)

// プレースホルダー名です。
const (
	VarSourceContext = "source_context"
	VarCaption       = "caption"
	VarDescription   = "description"
)

var (
	//go:embed planner.md
	PlannerPrompt string
	//go:embed linkedin_planner.md
	LinkedInPlannerPrompt string
	//go:embed visualizer.md
	VisualizerPrompt string
	//go:embed critic.md
	CriticPrompt string
)

// defaultTemplates は種類とテンプレート文字列を紐づけるマップです。
func defaultTemplates() map[string]string {
	return map[string]string{
		KindPlanner:         PlannerPrompt,
		KindLinkedInPlanner: LinkedInPlannerPrompt,
		KindVisualizer:      VisualizerPrompt,
		KindCritic:          CriticPrompt,
	}
}
