package domain

import "strings"

// PipelineStatus は実行中の現在のフェーズを表します。
type PipelineStatus string

const (
	StatusIdle       PipelineStatus = "idle"
	StatusPlanning   PipelineStatus = "planning"
	StatusGenerating PipelineStatus = "generating"
	StatusCritiquing PipelineStatus = "critiquing"
	StatusBranding   PipelineStatus = "branding"
	StatusDone       PipelineStatus = "done"
	StatusError      PipelineStatus = "error"
)

// IsTerminal は done または error の場合に true を返します。
func (s PipelineStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// CritiqueDecision は批評モデルの応答から取り出した改訂判断です。
type CritiqueDecision struct {
	CriticSuggestions  []string `json:"critic_suggestions"`
	RevisedDescription *string  `json:"revised_description"`
}

// Converged は批評モデルがこれ以上の改訂を求めていない場合に true を返します。
func (d CritiqueDecision) Converged() bool {
	return d.RevisedDescription == nil || strings.TrimSpace(*d.RevisedDescription) == ""
}
