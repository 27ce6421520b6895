package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-diagram-kit/internal/config"
	"github.com/shouni/go-diagram-kit/internal/pipeline"
	"github.com/shouni/go-diagram-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// generateCmd は、説明文の作成から画像の生成・批評・保存までを実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ソースの文章から図を生成するのだ。",
	Long: `ソースとなる文章とキャプションから図の説明文を作り、画像を生成するのだ。
--iterations が 2 以上なら、批評モデルが画像を見て説明文を改訂し、再生成を繰り返すのだよ。
出力は画像ファイルと説明文の Markdown になるのだ。`,
	RunE: generateCommand,
}

func init() {
	f := generateCmd.Flags()

	// --- ソース入力関連 ---
	f.StringVarP(&opts.SourceFile, "source-file", "f", "", "ソース文章のファイルパスなのだ（'-' または未指定で標準入力）。")
	f.StringVarP(&opts.Caption, "caption", "c", "", "図のキャプション（何を伝えたい図か）なのだ。")
	f.StringVarP(&opts.DiagramType, "type", "t", config.DefaultDiagramType, "図の種類なのだ（"+diagramTypeNames()+"）。")
	f.BoolVar(&opts.UseExample, "example", false, "組み込みのサンプル文章で試すのだ。")

	// --- 生成関連 ---
	f.IntVarP(&opts.Iterations, "iterations", "n", config.DefaultIterations, fmt.Sprintf("生成と批評の最大反復回数なのだ（1〜%d）。", domain.MaxIterations))
	f.StringVarP(&opts.AspectRatio, "aspect-ratio", "a", "", "画像のアスペクト比なのだ（例: 16:9）。")

	// --- ブランディング ---
	f.BoolVar(&opts.ShowLogo, "show-logo", false, "左下にロゴを重ねるのだ。")
	f.StringVar(&opts.Logo, "logo", "", "ロゴ画像のパス、URL、または data URI なのだ。")
	f.BoolVar(&opts.ShowURL, "show-url", false, "左下に URL テキストを重ねるのだ。")
	f.StringVar(&opts.URLText, "url-text", "", "重ねる URL テキストなのだ。")

	// --- 生成結果の出力設定 ---
	f.StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultOutputFile, "最終画像の保存パスなのだ（拡張子は画像形式に合わせるのだ）。")
	f.BoolVar(&opts.SaveIterations, "save-iterations", false, "途中の反復画像も連番付きで保存するのだ。")
	f.BoolVar(&opts.NoHistory, "no-history", false, "履歴に記録しないのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.SourceFile == "" && !opts.UseExample && !isStdin() {
		return fmt.Errorf("ソース（--source-file、標準入力、または --example）を指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	libCfg := cfg.LibraryConfig()
	slog.Info("図の生成パイプラインを起動するのだ！",
		"type", opts.DiagramType,
		"iterations", opts.Iterations,
		"text_model", libCfg.GeminiModel,
		"image_model", libCfg.ImageModel,
		"output", opts.OutputFile)

	// 3. 実行
	if err := pipeline.Execute(ctx, cfg, os.Stdin, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// diagramTypeNames はヘルプ表示用に図の種類を並べるのだ。
func diagramTypeNames() string {
	types := domain.SupportedDiagramTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
