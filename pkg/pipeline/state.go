package pipeline

import "github.com/shouni/go-diagram-kit/pkg/domain"

// runState はループ間で受け渡す実行中の状態です。
// description は常に image を生成した説明文と一致します。
type runState struct {
	description string
	image       domain.GenerationResult
	trail       []domain.IterationImage
}

// render は新しい説明文と画像を採用し、軌跡に 1 件追加します。
func (s *runState) render(description string, image domain.GenerationResult, label string) {
	s.description = description
	s.image = image
	s.trail = append(s.trail, domain.IterationImage{DataURI: image.DataURI(), Label: label})
}

// brand は現在の画像を差し替え、軌跡の最後のエントリだけを書き換えます。
func (s *runState) brand(brandedURI string) {
	if mime, b64, ok := domain.ParseDataURI(brandedURI); ok {
		s.image = domain.GenerationResult{ImageBase64: b64, MimeType: mime}
	}
	if len(s.trail) == 0 {
		return
	}
	last := &s.trail[len(s.trail)-1]
	last.DataURI = s.image.DataURI()
	last.Label = domain.BrandedLabel(last.Label)
}

func (s *runState) result() *domain.PipelineResult {
	trail := make([]domain.IterationImage, len(s.trail))
	copy(trail, s.trail)
	return &domain.PipelineResult{
		ImageBase64: s.image.ImageBase64,
		MimeType:    s.image.MimeType,
		Description: s.description,
		Iterations:  trail,
	}
}
