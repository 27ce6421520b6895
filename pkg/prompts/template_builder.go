package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// Option は TemplateBuilder の構築オプションです。
type Option func(map[string]string)

// WithOverrides は、指定された種類のテンプレートを差し替えます。
func WithOverrides(overrides map[string]string) Option {
	return func(templates map[string]string) {
		for kind, content := range overrides {
			templates[kind] = content
		}
	}
}

// TemplateBuilder は埋め込みテンプレートを管理し、図の種類によるプランナー選択のロジックを内包します。
type TemplateBuilder struct {
	templates map[string]string
}

// NewTemplateBuilder は TemplateBuilder を初期化します。
func NewTemplateBuilder(opts ...Option) (*TemplateBuilder, error) {
	templates := defaultTemplates()
	for _, opt := range opts {
		opt(templates)
	}

	for kind, content := range templates {
		if _, ok := defaultTemplates()[kind]; !ok {
			return nil, fmt.Errorf("不明なテンプレート種別です: '%s'", kind)
		}
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' の読み込みに失敗しました: 内容が空です", kind)
		}
	}

	return &TemplateBuilder{templates: templates}, nil
}

// BuildPlanner は図の種類に応じたプランナープロンプトを生成します。
// linkedin 以外の種類はすべて汎用プランナーを使います。
func (b *TemplateBuilder) BuildPlanner(diagramType domain.DiagramType, sourceContext, caption string) string {
	kind := KindPlanner
	if diagramType == domain.DiagramLinkedIn {
		kind = KindLinkedInPlanner
	}
	return Fill(b.templates[kind], map[string]string{
		VarSourceContext: sourceContext,
		VarCaption:       caption,
	})
}

// BuildVisualizer は画像生成用プロンプトを生成します。
func (b *TemplateBuilder) BuildVisualizer(description string) string {
	return Fill(b.templates[KindVisualizer], map[string]string{
		VarDescription: description,
	})
}

// BuildCritic は批評用プロンプトを生成します。
func (b *TemplateBuilder) BuildCritic(sourceContext, caption, description string) string {
	return Fill(b.templates[KindCritic], map[string]string{
		VarSourceContext: sourceContext,
		VarCaption:       caption,
		VarDescription:   description,
	})
}
