package pipeline

import (
	"context"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// Gateway は生成モデルへの 3 種類の呼び出しを抽象化します。
// 実装は *gemini.Client です。
type Gateway interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (domain.GenerationResult, error)
	GenerateTextWithImage(ctx context.Context, prompt, imageBase64, mimeType string) (string, error)
}

// StatusFunc はフェーズ遷移ごとに同期的に呼び出される通知先です。
type StatusFunc func(status domain.PipelineStatus, message string)
