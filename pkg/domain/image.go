package domain

import (
	"fmt"
	"regexp"
)

const (
	// DefaultMimeType はプロバイダーが MIME タイプを返さなかった場合の既定値です。
	DefaultMimeType = "image/png"
	// InitialIterationLabel は最初に生成された画像のラベルです。
	InitialIterationLabel = "Iteration 1 (initial)"

	brandedSuffix = " (branded)"
)

var dataURIRegex = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// GenerationResult は画像生成 1 回分の結果です（base64 ペイロードと MIME タイプ）。
type GenerationResult struct {
	ImageBase64 string
	MimeType    string
}

// DataURI は画像を data URI 形式で返します。
func (g GenerationResult) DataURI() string {
	return EncodeDataURI(g.MimeType, g.ImageBase64)
}

// IterationImage は実行の軌跡（trail）に記録される 1 枚分の画像です。
type IterationImage struct {
	DataURI string `json:"data_uri"`
	Label   string `json:"label"`
}

// PipelineResult は正常終了した実行の最終成果物です。
type PipelineResult struct {
	ImageBase64 string           `json:"image_base64"`
	MimeType    string           `json:"mime_type"`
	Description string           `json:"description"`
	Iterations  []IterationImage `json:"iterations"`
}

// DataURI は最終画像を data URI 形式で返します。
func (r PipelineResult) DataURI() string {
	return EncodeDataURI(r.MimeType, r.ImageBase64)
}

// EncodeDataURI は MIME タイプと base64 ペイロードから data URI を組み立てます。
func EncodeDataURI(mimeType, b64 string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, b64)
}

// ParseDataURI は data URI を MIME タイプと base64 ペイロードに分解します。
func ParseDataURI(uri string) (mimeType, b64 string, ok bool) {
	m := dataURIRegex.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IterationLabel は n 番目の反復画像のラベルを返します。
func IterationLabel(n int) string {
	return fmt.Sprintf("Iteration %d", n)
}

// BrandedLabel はブランディング済みの画像であることを示すラベルを返します。
func BrandedLabel(label string) string {
	return label + brandedSuffix
}
