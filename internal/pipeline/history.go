package pipeline

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shouni/go-diagram-kit/internal/builder"
	"github.com/shouni/go-diagram-kit/internal/config"
	"github.com/shouni/go-diagram-kit/pkg/history"
	"github.com/shouni/go-diagram-kit/pkg/publisher"
)

const captionWidth = 48

// ListHistory は履歴を新しい順に表形式で書き出すのだ。
func ListHistory(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withHistory(cfg, func(store *history.Store) error {
		records, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "履歴はまだないのだ")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN ID\tCREATED\tTYPE\tITER\tCAPTION")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				r.RunID,
				r.CreatedAt.Local().Format(time.DateTime),
				r.DiagramType,
				len(r.Iterations),
				truncate(r.Caption, captionWidth))
		}
		return tw.Flush()
	})
}

// ShowHistory は履歴 1 件の説明文を表示し、outputPath が指定されていれば画像も書き出すのだ。
func ShowHistory(ctx context.Context, cfg *config.Config, runID, outputPath string, saveIterations bool, out io.Writer) error {
	return withHistory(cfg, func(store *history.Store) error {
		rec, err := store.Get(ctx, runID)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "run id:  %s\ncreated: %s\ntype:    %s\ncaption: %s\n\n%s\n",
			rec.RunID, rec.CreatedAt.Local().Format(time.DateTime), rec.DiagramType, rec.Caption, rec.Description)
		for i, it := range rec.Iterations {
			fmt.Fprintf(out, "  %d. %s\n", i+1, it.Label)
		}

		if outputPath == "" {
			return nil
		}
		files, err := publisher.NewDiagramPublisher(nil).Publish(ctx, rec.Result(), publisher.Options{
			OutputPath:     outputPath,
			SaveIterations: saveIterations,
			Title:          rec.Caption,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nimage:  %s\nreport: %s\n", files.ImagePath, files.ReportPath)
		return nil
	})
}

// DeleteHistory は履歴 1 件を削除するのだ。
func DeleteHistory(ctx context.Context, cfg *config.Config, runID string) error {
	return withHistory(cfg, func(store *history.Store) error {
		return store.Delete(ctx, runID)
	})
}

// ClearHistory は履歴をすべて削除するのだ。
func ClearHistory(ctx context.Context, cfg *config.Config) error {
	return withHistory(cfg, func(store *history.Store) error {
		return store.Clear(ctx)
	})
}

func withHistory(cfg *config.Config, fn func(*history.Store) error) error {
	store, err := builder.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
