package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-diagram-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "diagram-kit"

// opts は全サブコマンドで共有する CLI フラグの値なのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "論文やメモから図を生成・改善する CLI なのだ。",
	Long: `ソースとなる文章から図の説明文を作り、画像を生成し、
批評ループで改善してから（必要なら）ロゴや URL を重ねて保存するのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "説明文の作成と批評に使う Gemini モデル名なのだ。（既定: GEMINI_MODEL または "+config.DefaultModel+"）")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使う Gemini モデル名なのだ。（既定: IMAGE_GEMINI_MODEL または "+config.DefaultImageModel+"）")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "API リクエストのタイムアウトなのだ。（既定: HTTP_TIMEOUT または 5m）")
	rootCmd.PersistentFlags().StringVar(&opts.PromptsFile, "prompts", "", "プロンプトを上書きする YAML ファイルなのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, historyCmd)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
