package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zurustar/bsscript/pkg/compiler"
)

const textFormatVersion = compiler.FormatVersion

func newListCmd(h Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "バンドル内のスクリプトファイルを一覧表示",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.List(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newDecompileCmd(h Handler) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "decompile <path-id>",
		Short: "スクリプトファイルをテキストに変換して表示",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid path ID %q: %w", args[0], err)
			}
			return h.Decompile(cmd.Context(), cmd.OutOrStdout(), pathID, label)
		},
	}
	cmd.Flags().StringVar(&label, "script", "", "指定したラベルのスクリプトだけを表示")
	return cmd
}

func newExportCmd(h Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "全スクリプトファイルを <name>_<pathid>.bss として書き出す",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Export(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newImportCmd(h Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: ".bss ファイルをコンパイルしてバンドルに書き戻す",
		Long: `ディレクトリ内の .bss ファイルをすべてコンパイルし、同じ path ID のスクリプトファイルを
置き換えてからバンドルを保存する。1つでもコンパイルエラーがあれば何も保存しない
（--ignore-errors 指定時はエラー行を読み飛ばす）。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Import(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func newCheckCmd(h Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.bss>",
		Short: ".bss ファイルをコンパイルしてエラーを報告（バンドルは読まない）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Check(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}
