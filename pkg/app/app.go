package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/zurustar/bsscript/pkg/cli"
	"github.com/zurustar/bsscript/pkg/container"
	"github.com/zurustar/bsscript/pkg/logger"
	"github.com/zurustar/bsscript/pkg/session"
)

// ErrNoBasePath is returned by commands that need the bundle when no base
// path was configured.
var ErrNoBasePath = errors.New("base path is not set (use --base, BSSCRIPT_BASE_PATH or base_path in bsscript.toml)")

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	session *session.Session

	stdout io.Writer
	logOut io.Writer
	getenv func(string) string
}

// Option configures an Application.
type Option func(*Application)

// WithOutput sets where command output is written.
func WithOutput(w io.Writer) Option {
	return func(app *Application) { app.stdout = w }
}

// WithLogOutput sets where log records are written.
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) { app.logOut = w }
}

// WithEnv replaces os.Getenv.
func WithEnv(getenv func(string) string) Option {
	return func(app *Application) { app.getenv = getenv }
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		stdout: os.Stdout,
		logOut: os.Stderr,
		getenv: os.Getenv,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCmd(app, app.getenv)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.logOut)
	return root.ExecuteContext(ctx)
}

// Init implements cli.Handler.
func (app *Application) Init(cfg *cli.Config) error {
	app.config = cfg
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log.Debug("Configuration resolved",
		"config_file", cfg.Path,
		"base_path", cfg.BasePath,
		"bundle", cfg.Bundle,
		"encoding", cfg.Encoding)
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.config.LogLevel, app.logOut); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// openSession バンドルを読み込んでセッションを開く
func (app *Application) openSession() (*session.Session, error) {
	if app.session != nil {
		return app.session, nil
	}
	if app.config.BasePath == "" {
		return nil, ErrNoBasePath
	}

	store := container.NewBundleStore(container.WithLogger(app.log))
	sess := session.New(store,
		session.WithLogger(app.log),
		session.WithBundleKey(app.config.Bundle),
		session.WithStrictDecode(app.config.StrictDecode),
	)
	if err := sess.SetBasePath(app.config.BasePath); err != nil {
		return nil, err
	}
	if err := sess.LoadScriptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}

	app.session = sess
	return sess, nil
}
