package history

import (
	"time"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// Record は完了した 1 回の実行を表す履歴エントリです。
type Record struct {
	Seq         uint                    `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID       string                  `gorm:"uniqueIndex;size:36;not null" json:"run_id"`
	CreatedAt   time.Time               `gorm:"index" json:"created_at"`
	Caption     string                  `json:"caption"`
	DiagramType string                  `gorm:"size:64" json:"diagram_type"`
	Description string                  `json:"description"`
	MimeType    string                  `gorm:"size:64" json:"mime_type"`
	ImageBase64 string                  `json:"image_base64"`
	Iterations  []domain.IterationImage `gorm:"serializer:json" json:"iterations"`
}

// TableName は gorm が使うテーブル名です。
func (Record) TableName() string {
	return "diagram_history"
}

// NewRecord はパイプラインの結果から履歴エントリを組み立てます。
func NewRecord(runID string, input domain.PipelineInput, result *domain.PipelineResult) *Record {
	rec := &Record{
		RunID:       runID,
		CreatedAt:   time.Now(),
		Caption:     input.Caption,
		DiagramType: string(input.DiagramType),
	}
	if result != nil {
		rec.Description = result.Description
		rec.MimeType = result.MimeType
		rec.ImageBase64 = result.ImageBase64
		rec.Iterations = result.Iterations
	}
	return rec
}

// Result は履歴エントリを PipelineResult に戻します。
func (r *Record) Result() *domain.PipelineResult {
	return &domain.PipelineResult{
		ImageBase64: r.ImageBase64,
		MimeType:    r.MimeType,
		Description: r.Description,
		Iterations:  r.Iterations,
	}
}
