package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zurustar/bsscript/pkg/config"
)

// Version はビルド時に -ldflags で上書きされる
var Version = "0.1.0-dev"

// Config はコマンドライン・環境変数・設定ファイルから解決された設定
type Config struct {
	config.Config

	OutDir string // バンドルの保存先（空ならbase path に上書き保存）
}

// Handler executes the subcommands. pkg/app provides the implementation.
type Handler interface {
	// Init is called once with the resolved configuration before any
	// subcommand runs.
	Init(cfg *Config) error

	List(ctx context.Context, w io.Writer) error
	Decompile(ctx context.Context, w io.Writer, pathID int64, label string) error
	Export(ctx context.Context, w io.Writer, dir string) error
	Import(ctx context.Context, w io.Writer, dir string) error
	Check(ctx context.Context, w io.Writer, path string) error
}

// flags holds the raw values of the global flags.
type flags struct {
	configPath string
	basePath   string
	bundle     string
	logLevel   string
	encoding   string
	outDir     string
	ignore     bool
	strict     bool
}

// NewRootCmd builds the command tree. getenv is os.Getenv in production.
func NewRootCmd(h Handler, getenv func(string) string) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "bsscript",
		Short: "Brilliant Shining script editor toolchain",
		Long: `bsscript - スクリプトバンドルの逆コンパイル・編集・再コンパイル

バンドル（<base>/<bundle>.bundle）からスクリプトを読み出してテキストに変換し、
編集したテキストをコンパイルしてバンドルに書き戻す。

Environment Variables:
  BSSCRIPT_BASE_PATH=<dir>    バンドルのあるディレクトリ
  LOG_LEVEL=<level>           ログレベル

設定の優先順位: フラグ > 環境変数 > bsscript.toml > デフォルト`,
		Example: `  bsscript --base /games/bs/Data list
  bsscript decompile 4201
  bsscript export ./scripts --encoding shift_jis
  bsscript import ./scripts --out ./patched
  bsscript check ./scripts/event_01_4201.bss`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			return h.Init(cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "設定ファイル（デフォルト: ./"+config.FileName+"）")
	pf.StringVarP(&f.basePath, "base", "b", "", "バンドルのあるディレクトリ")
	pf.StringVar(&f.bundle, "bundle", "", "スクリプトを格納したバンドル名（デフォルト: scriptdata）")
	pf.StringVarP(&f.logLevel, "log-level", "l", "", "ログレベル: debug, info, warn, error（デフォルト: info）")
	pf.StringVarP(&f.encoding, "encoding", "e", "", ".bss ファイルの文字コード: utf-8, shift_jis")
	pf.StringVarP(&f.outDir, "out", "o", "", "バンドルの保存先ディレクトリ（省略時はbase pathに上書き）")
	pf.BoolVar(&f.ignore, "ignore-errors", false, "コンパイルエラーの行を読み飛ばして続行")
	pf.BoolVar(&f.strict, "strict", false, "壊れたエントリがあれば読み込みを中断")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newListCmd(h))
	root.AddCommand(newDecompileCmd(h))
	root.AddCommand(newExportCmd(h))
	root.AddCommand(newImportCmd(h))
	root.AddCommand(newCheckCmd(h))

	return root
}

// resolveConfig applies flag > environment > file > default.
func resolveConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (*Config, error) {
	base, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	base.ApplyEnv(getenv)

	// 明示的に指定されたフラグだけを反映する
	changed := cmd.Flags().Changed
	if changed("base") {
		base.BasePath = f.basePath
	}
	if changed("bundle") {
		base.Bundle = f.bundle
	}
	if changed("log-level") {
		base.LogLevel = f.logLevel
	}
	if changed("encoding") {
		base.Encoding = f.encoding
	}
	if changed("ignore-errors") {
		base.IgnoreExceptions = f.ignore
	}
	if changed("strict") {
		base.StrictDecode = f.strict
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &Config{Config: *base, OutDir: f.outDir}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示",
		Args:  cobra.NoArgs,
		// 設定の読み込みは不要
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bsscript %s (text format %d)\n", Version, textFormatVersion)
		},
	}
}
