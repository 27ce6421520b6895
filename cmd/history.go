package cmd

import (
	"fmt"

	"github.com/shouni/go-diagram-kit/internal/config"
	"github.com/shouni/go-diagram-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	historyOutput         string
	historySaveIterations bool
)

// historyCmd は、過去の実行結果を一覧・表示・削除するのだ。
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "生成履歴を管理するのだ。",
	Long:  `直近の実行結果（最大 HISTORY_LIMIT 件、既定 20 件）を新しい順に保持しているのだ。`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "履歴を一覧表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ListHistory(cmd.Context(), config.LoadConfig(), cmd.OutOrStdout())
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "履歴の詳細を表示し、必要なら画像を書き出すのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ShowHistory(cmd.Context(), config.LoadConfig(), args[0], historyOutput, historySaveIterations, cmd.OutOrStdout())
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "履歴を 1 件削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.DeleteHistory(cmd.Context(), config.LoadConfig(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "削除したのだ: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "履歴をすべて削除するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ClearHistory(cmd.Context(), config.LoadConfig())
	},
}

func init() {
	historyShowCmd.Flags().StringVarP(&historyOutput, "output-file", "o", "", "画像と説明文を書き出すパスなのだ。")
	historyShowCmd.Flags().BoolVar(&historySaveIterations, "save-iterations", false, "途中の反復画像も書き出すのだ。")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
}
