package branding

import (
	"context"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// Compositor は完成画像にブランディングを重ねる処理の契約です。
// 失敗しても実行を止めてはならず、適用できない場合は入力をそのまま返します。
type Compositor interface {
	Apply(ctx context.Context, imageDataURI string, opts domain.BrandingOptions) string
}

// NopCompositor は何もしない Compositor です。
type NopCompositor struct{}

// Apply は入力をそのまま返します。
func (NopCompositor) Apply(_ context.Context, imageDataURI string, _ domain.BrandingOptions) string {
	return imageDataURI
}
