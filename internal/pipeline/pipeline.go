package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-diagram-kit/examples"
	"github.com/shouni/go-diagram-kit/internal/builder"
	"github.com/shouni/go-diagram-kit/internal/config"
	"github.com/shouni/go-diagram-kit/pkg/domain"
	diagram "github.com/shouni/go-diagram-kit/pkg/pipeline"
)

// Execute は入力を読み込み、図の生成から保存までを実行するのだ。
// 進捗は out に 1 行ずつ書き出されるのだ。
func Execute(ctx context.Context, cfg *config.Config, stdin io.Reader, out io.Writer) error {
	input, err := BuildInput(cfg.Options, stdin)
	if err != nil {
		return err
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	runner, err := appCtx.Workflow.BuildDiagramRunner()
	if err != nil {
		return fmt.Errorf("DiagramRunnerの構築に失敗したのだ: %w", err)
	}

	outcome, err := runner.RunAndSave(ctx, input, cfg.Options.OutputFile, cfg.Options.SaveIterations, StatusPrinter(out))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "図の生成が完了したのだ！",
		"run_id", outcome.RunID,
		"iterations", len(outcome.Result.Iterations),
		"duration", outcome.Duration)
	if outcome.Files != nil {
		fmt.Fprintf(out, "image:  %s\nreport: %s\n", outcome.Files.ImagePath, outcome.Files.ReportPath)
		for _, p := range outcome.Files.IterationPaths {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	fmt.Fprintf(out, "run id: %s\n", outcome.RunID)
	return nil
}

// BuildInput は CLI オプションと入力ソースから PipelineInput を組み立てるのだ。
// --example 指定時は組み込みのサンプルを使い、フラグで上書きできるのだ。
func BuildInput(opts config.GenerateOptions, stdin io.Reader) (domain.PipelineInput, error) {
	var input domain.PipelineInput
	if opts.UseExample {
		input = examples.SampleInput()
	}

	if opts.SourceFile != "" || !opts.UseExample {
		source, err := readSource(opts.SourceFile, stdin)
		if err != nil {
			return input, err
		}
		input.SourceContext = source
	}

	if opts.Caption != "" {
		input.Caption = opts.Caption
	}
	if opts.DiagramType != "" {
		dt, err := domain.ParseDiagramType(opts.DiagramType)
		if err != nil {
			return input, err
		}
		input.DiagramType = dt
	}
	if input.DiagramType == "" {
		input.DiagramType = domain.DiagramType(config.DefaultDiagramType)
	}
	if opts.Iterations > 0 {
		input.Iterations = opts.Iterations
	}
	input.AspectRatio = opts.AspectRatio
	input.Branding = domain.BrandingOptions{
		ShowLogo: opts.ShowLogo,
		LogoRef:  opts.Logo,
		ShowURL:  opts.ShowURL,
		URLText:  opts.URLText,
	}

	if err := input.Validate(); err != nil {
		return input, err
	}
	if input.Branding.ShowLogo && input.Branding.LogoRef == "" {
		slog.Warn("--show-logo が指定されていますが --logo が空なのでロゴは描画されないのだ")
	}
	return input, nil
}

// readSource はファイル（'-' は標準入力）または標準入力からソースを読み込むのだ。
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "", "-":
		if stdin == nil {
			return "", fmt.Errorf("ソース（--source-file または標準入力）を指定してほしいのだ")
		}
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("ソースの読み込みに失敗したのだ: %w", err)
	}

	source := strings.TrimSpace(string(data))
	if source == "" {
		return "", fmt.Errorf("ソースが空なのだ")
	}
	return source, nil
}

// StatusPrinter はステータス遷移を 1 行ずつ書き出す通知先を返すのだ。
func StatusPrinter(w io.Writer) diagram.StatusFunc {
	return func(status domain.PipelineStatus, message string) {
		if message == "" {
			fmt.Fprintf(w, "[%s]\n", status)
			return
		}
		fmt.Fprintf(w, "[%s] %s\n", status, message)
	}
}
