package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageFileName は最終画像のデフォルトのファイル名です。
	DefaultImageFileName = "diagram.png"
	// DefaultReportExt は説明文レポートの拡張子です。
	DefaultReportExt = ".md"
)

var (
	mimeExtensions = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// ResolveBaseURL は、入力パス（URLまたはローカルパス）から
// 親ディレクトリのパスを解決し、末尾がセパレータで終わるように正規化します。
func ResolveBaseURL(rawPath string) string {
	return urlpath.ResolveBaseDir(rawPath)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "out/diagram.png", 1 -> "out/diagram_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// ExtensionForMime は画像の MIME タイプに対応する拡張子を返します。未知のタイプは ".png" です。
func ExtensionForMime(mimeType string) string {
	if ext, ok := mimeExtensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".png"
}

// ImageExtensions は出力しうる画像の拡張子を重複なしで返します。
func ImageExtensions() []string {
	exts := make([]string, 0, len(mimeExtensions))
	for _, ext := range mimeExtensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return slices.Compact(exts)
}

// WithExtension はパスの拡張子を ext に置き換えます。拡張子が無ければ付与します。
func WithExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// ReportPath は画像パスに対応する説明文レポートのパスを返します。
// 例: "out/diagram.png" -> "out/diagram.md"
func ReportPath(imagePath string) (string, error) {
	base := filepath.Base(WithExtension(imagePath, DefaultReportExt))
	return ResolveOutputPath(ResolveBaseURL(imagePath), base)
}

// IndexedFileRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "diagram.png" -> ^diagram_\d+\.png$
func IndexedFileRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
