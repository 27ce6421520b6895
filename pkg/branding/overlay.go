package branding

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"

	"github.com/shouni/go-diagram-kit/pkg/domain"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultLogoWidthRatio は画像幅に対するロゴ幅の割合です。
	DefaultLogoWidthRatio = 0.08

	minMargin      = 8
	textPadding    = 3
	textScaleBasis = 500 // この幅ごとに文字を 1 段階拡大する
)

var (
	plateColor = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	textColor  = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
)

// OverlayCompositor は画像の左下にロゴと URL テキストを描画します。
type OverlayCompositor struct {
	logos          *LogoResolver
	logoWidthRatio float64
}

// NewOverlayCompositor は OverlayCompositor を初期化します。
func NewOverlayCompositor(logos *LogoResolver) *OverlayCompositor {
	if logos == nil {
		logos = NewLogoResolver(nil, nil, 0)
	}
	return &OverlayCompositor{
		logos:          logos,
		logoWidthRatio: DefaultLogoWidthRatio,
	}
}

// Apply はブランディングを適用した PNG の data URI を返します。
// 何も描画できなかった場合や失敗した場合は入力をそのまま返します。
func (c *OverlayCompositor) Apply(ctx context.Context, imageDataURI string, opts domain.BrandingOptions) string {
	out, err := c.compose(ctx, imageDataURI, opts)
	if err != nil {
		slog.WarnContext(ctx, "ブランディングの適用をスキップします", "error", err)
		return imageDataURI
	}
	return out
}

func (c *OverlayCompositor) compose(ctx context.Context, imageDataURI string, opts domain.BrandingOptions) (string, error) {
	_, b64, ok := domain.ParseDataURI(imageDataURI)
	if !ok {
		return "", fmt.Errorf("画像の data URI が不正です")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("画像の base64 デコードに失敗しました: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	margin := max(minMargin, b.Dx()/40)
	x := margin
	bottom := b.Dy() - margin
	applied := false

	if opts.ShowLogo && opts.LogoRef != "" {
		logo, err := c.logos.Resolve(ctx, opts.LogoRef)
		if err != nil {
			slog.WarnContext(ctx, "ロゴを読み込めなかったため描画しません", "error", err)
		} else {
			x += c.drawLogo(canvas, logo, x, bottom) + margin/2
			applied = true
		}
	}

	if text := strings.TrimSpace(opts.URLText); opts.ShowURL && text != "" {
		drawText(canvas, text, x, bottom, max(1, b.Dx()/textScaleBasis))
		applied = true
	}

	if !applied {
		return "", fmt.Errorf("描画対象がありません")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("PNG エンコードに失敗しました: %w", err)
	}
	return domain.EncodeDataURI("image/png", base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// drawLogo はロゴを縦横比を保って縮小し、(x, bottom) を左下として描画します。描画した幅を返します。
func (c *OverlayCompositor) drawLogo(canvas *image.RGBA, logo image.Image, x, bottom int) int {
	lb := logo.Bounds()
	if lb.Dx() == 0 || lb.Dy() == 0 {
		return 0
	}
	w := max(1, int(float64(canvas.Bounds().Dx())*c.logoWidthRatio))
	h := max(1, lb.Dy()*w/lb.Dx())

	dst := image.Rect(x, bottom-h, x+w, bottom)
	draw.CatmullRom.Scale(canvas, dst, logo, lb, draw.Over, nil)
	return w
}

// drawText は半透明の下地付きでテキストを描画し、scale 倍に拡大して (x, bottom) を左下に配置します。
func drawText(canvas *image.RGBA, text string, x, bottom, scale int) {
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil()
	th := face.Metrics().Height.Ceil()

	label := image.NewRGBA(image.Rect(0, 0, tw+textPadding*2, th+textPadding*2))
	draw.Draw(label, label.Bounds(), image.NewUniform(plateColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  label,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(textPadding, textPadding+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	lb := label.Bounds()
	dst := image.Rect(x, bottom-lb.Dy()*scale, x+lb.Dx()*scale, bottom)
	draw.NearestNeighbor.Scale(canvas, dst, label, lb, draw.Over, nil)
}
