package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxIterations は呼び出し側（CLI や Runner）で適用する反復回数の上限です。
// オーケストレーター自体はこの上限を強制しません。
const MaxIterations = 5

// ErrInvalidInput は PipelineInput が呼び出し側のポリシーを満たさない場合のエラーです。
var ErrInvalidInput = errors.New("invalid pipeline input")

// DiagramType はプランナーテンプレートの選択に使う図の種類です。
type DiagramType string

const (
	DiagramMethodology     DiagramType = "methodology"
	DiagramLinkedIn        DiagramType = "linkedin"
	DiagramStatisticalPlot DiagramType = "statistical_plot"
)

var supportedDiagramTypes = []DiagramType{
	DiagramLinkedIn,
	DiagramMethodology,
	DiagramStatisticalPlot,
}

// SupportedDiagramTypes は受け付ける図の種類を名前順で返します。
func SupportedDiagramTypes() []DiagramType {
	return slices.Clone(supportedDiagramTypes)
}

// IsSupported は t が既知の図の種類かどうかを返します。
// プランナーは未知の種類も汎用テンプレートで扱うため、この判定は入力側で使います。
func (t DiagramType) IsSupported() bool {
	return slices.Contains(supportedDiagramTypes, t)
}

// ParseDiagramType は文字列を DiagramType に変換します。未知の種類はサポート一覧付きのエラーになります。
func ParseDiagramType(s string) (DiagramType, error) {
	t := DiagramType(strings.TrimSpace(s))
	if t.IsSupported() {
		return t, nil
	}
	names := make([]string, len(supportedDiagramTypes))
	for i, st := range supportedDiagramTypes {
		names[i] = string(st)
	}
	return "", fmt.Errorf("%w: サポートされていない図の種類 '%s'。サポートされている種類は [%s] です",
		ErrInvalidInput, s, strings.Join(names, ", "))
}

// BrandingOptions は完成画像に重ねるロゴと URL の指定です。
type BrandingOptions struct {
	ShowLogo bool   `json:"show_logo"`
	LogoRef  string `json:"logo_ref,omitempty"` // data URI、http(s) URL、またはローカルパス
	ShowURL  bool   `json:"show_url"`
	URLText  string `json:"url_text,omitempty"`
}

// Requested はブランディング工程を実行すべきかどうかを返します。
func (b BrandingOptions) Requested() bool {
	return b.ShowLogo || b.ShowURL
}

// PipelineInput は 1 回の実行に必要な入力一式です。実行中に変更されることはありません。
type PipelineInput struct {
	SourceContext string          `json:"source_context"`
	Caption       string          `json:"caption"`
	DiagramType   DiagramType     `json:"diagram_type"`
	Iterations    int             `json:"iterations"`
	Branding      BrandingOptions `json:"branding"`
	AspectRatio   string          `json:"aspect_ratio,omitempty"`
}

// Validate は呼び出し側のポリシー（空でない入力、1〜MaxIterations の反復回数）を検証します。
func (in PipelineInput) Validate() error {
	switch {
	case strings.TrimSpace(in.SourceContext) == "":
		return fmt.Errorf("%w: source context is empty", ErrInvalidInput)
	case strings.TrimSpace(in.Caption) == "":
		return fmt.Errorf("%w: caption is empty", ErrInvalidInput)
	case in.Iterations < 1 || in.Iterations > MaxIterations:
		return fmt.Errorf("%w: iterations must be between 1 and %d (got %d)", ErrInvalidInput, MaxIterations, in.Iterations)
	}
	return nil
}
