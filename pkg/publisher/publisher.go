package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-diagram-kit/pkg/asset"
	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputPath     string // 最終画像の出力パス。拡張子は MIME タイプに合わせて補正される
	SaveIterations bool   // 反復画像も連番付きで保存するか
	Title          string // レポートの見出し（通常はキャプション）
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ImagePath      string   `json:"image_path"`
	ReportPath     string   `json:"report_path"`
	IterationPaths []string `json:"iteration_paths,omitempty"`
}

// DiagramPublisher は生成結果の画像と説明文レポートを書き出します。
type DiagramPublisher struct {
	writer Writer
}

// NewDiagramPublisher は DiagramPublisher を生成します。writer が nil の場合はローカルに書き出します。
func NewDiagramPublisher(writer Writer) *DiagramPublisher {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &DiagramPublisher{writer: writer}
}

// Publish は最終画像、（指定があれば）反復画像、説明文レポートを書き出し、保存先を返します。
func (p *DiagramPublisher) Publish(ctx context.Context, result *domain.PipelineResult, opts Options) (PublishResult, error) {
	var out PublishResult
	if result == nil {
		return out, fmt.Errorf("publisher: 書き出す結果がありません")
	}

	base := opts.OutputPath
	if base == "" {
		base = asset.DefaultImageFileName
	}

	// 1. 最終画像
	imagePath := asset.WithExtension(base, asset.ExtensionForMime(result.MimeType))
	if err := p.writeImage(ctx, imagePath, result.ImageBase64, result.MimeType); err != nil {
		return out, err
	}
	out.ImagePath = imagePath

	// 2. 反復画像 (linked は軌跡と同じ添字で保存先を持つ)
	linked := make([]string, len(result.Iterations))
	if opts.SaveIterations {
		for i, it := range result.Iterations {
			mime, b64, ok := domain.ParseDataURI(it.DataURI)
			if !ok {
				slog.WarnContext(ctx, "data URI として解釈できない反復画像をスキップします", "label", it.Label)
				continue
			}
			path, err := asset.GenerateIndexedPath(asset.WithExtension(base, asset.ExtensionForMime(mime)), i+1)
			if err != nil {
				return out, fmt.Errorf("反復画像の出力パスの解決に失敗しました: %w", err)
			}
			if err := p.writeImage(ctx, path, b64, mime); err != nil {
				return out, err
			}
			linked[i] = path
			out.IterationPaths = append(out.IterationPaths, path)
		}
	}

	// 3. 以前の実行で書き出された、今回使われない連番画像の削除
	if opts.SaveIterations {
		p.pruneStaleIterations(ctx, imagePath, out.IterationPaths)
	}

	// 4. 説明文レポート
	reportPath, err := asset.ReportPath(imagePath)
	if err != nil {
		return out, fmt.Errorf("レポートの出力パスの解決に失敗しました: %w", err)
	}
	content := BuildMarkdown(opts.Title, result, imagePath, linked)
	if err := p.writer.Write(ctx, reportPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return out, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	out.ReportPath = reportPath

	slog.InfoContext(ctx, "成果物を書き出しました", "image", out.ImagePath, "report", out.ReportPath, "iterations", len(out.IterationPaths))
	return out, nil
}

// pruneStaleIterations は imagePath と同じ名前の連番画像のうち、今回書き出していないものを削除します。
// Writer が Pruner を実装しない場合は何もしません。削除の失敗は警告に留めます。
func (p *DiagramPublisher) pruneStaleIterations(ctx context.Context, imagePath string, written []string) {
	pruner, ok := p.writer.(Pruner)
	if !ok {
		return
	}

	keep := make(map[string]bool, len(written))
	for _, path := range written {
		keep[filepath.Base(path)] = true
	}
	name := filepath.Base(imagePath)
	patterns := make([]*regexp.Regexp, 0, len(asset.ImageExtensions()))
	for _, ext := range asset.ImageExtensions() {
		patterns = append(patterns, asset.IndexedFileRegex(asset.WithExtension(name, ext)))
	}

	removed, err := pruner.Prune(ctx, filepath.Dir(imagePath), func(fileName string) bool {
		if keep[fileName] {
			return false
		}
		for _, re := range patterns {
			if re.MatchString(fileName) {
				return true
			}
		}
		return false
	})
	if err != nil {
		slog.WarnContext(ctx, "古い反復画像の削除に失敗しました", "error", err)
	}
	if len(removed) > 0 {
		slog.InfoContext(ctx, "古い反復画像を削除しました", "files", removed)
	}
}

func (p *DiagramPublisher) writeImage(ctx context.Context, path, b64, mimeType string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("画像データのデコードに失敗しました %s: %w", path, err)
	}
	if err := p.writer.Write(ctx, path, bytes.NewReader(data), mimeType); err != nil {
		return fmt.Errorf("画像の書き込みに失敗しました %s: %w", path, err)
	}
	return nil
}

// BuildMarkdown は説明文と画像の一覧をまとめた Markdown を返します。
// 画像パスはレポートからの相対パス（ファイル名）で記載します。
// iterationPaths は軌跡と同じ添字で対応し、空文字のエントリはリンクしません。
func BuildMarkdown(title string, result *domain.PipelineResult, imagePath string, iterationPaths []string) string {
	if title == "" {
		title = "Diagram"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "![%s](%s)\n\n", title, filepath.Base(imagePath))
	sb.WriteString("## Description\n\n")
	sb.WriteString(strings.TrimSpace(result.Description))
	sb.WriteString("\n\n## Iterations\n\n")

	for i, it := range result.Iterations {
		if i < len(iterationPaths) && iterationPaths[i] != "" {
			fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, it.Label, filepath.Base(iterationPaths[i]))
			continue
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, it.Label)
	}
	return sb.String()
}
