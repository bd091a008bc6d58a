// Package cli contains the postctl commands
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/klass-lk/postboot"
	"github.com/klass-lk/postboot/internal/config"
	"github.com/klass-lk/postboot/internal/output"
	"github.com/klass-lk/postboot/internal/repository"
	"github.com/klass-lk/postboot/internal/service"
)

var version = "dev"

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

// StoreOpener opens the post store for one invocation. The returned close
// function releases the connection.
type StoreOpener func(ctx context.Context, cfg *config.Config) (service.PostStore, func() error, error)

// Options wires the root command to its streams and storage.
type Options struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	OpenStore StoreOpener
}

// DefaultOptions uses the process streams and PostgreSQL.
func DefaultOptions() Options {
	return Options{
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		OpenStore: OpenPostgresStore,
	}
}

type app struct {
	opts    Options
	cfgFile string
	verbose bool
	color   string
	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer
}

// NewRootCmd builds the postctl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	cmd, _ := newRootCmd(opts)
	return cmd
}

func newRootCmd(opts Options) (*cobra.Command, *app) {
	a := &app{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "postctl",
		Short: "Manage blog posts stored in PostgreSQL",
		Long: `postctl writes drafts, publishes them, shows published posts and
deletes posts by title.

The database is taken from DATABASE_URL (a .env file in the working directory
is read first).

Example usage:
  postctl write                # prompt for a title, then read the body until EOF
  postctl publish 3            # publish post 3
  postctl show                 # show up to 5 published posts
  postctl delete draft         # delete every post whose title contains "draft"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.SetIn(opts.In)
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .postctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&a.color, "color", "", "color output: auto, always or never")

	rootCmd.AddCommand(
		newWriteCmd(a),
		newPublishCmd(a),
		newShowCmd(a),
		newDeleteCmd(a),
		newVersionCmd(),
	)

	return rootCmd, a
}

// Run executes postctl with args and reports a failure on the error stream
// with the colour mode the invocation resolved.
func Run(ctx context.Context, opts Options, args []string) error {
	cmd, a := newRootCmd(opts)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		a.reportError(err)
	}
	return err
}

// Execute runs postctl against the process streams and arguments.
func Execute(ctx context.Context) error {
	return Run(ctx, DefaultOptions(), os.Args[1:])
}

// reportError prints err with the configured printer. When the command
// failed before one was built, only the --color flag is honoured.
func (a *app) reportError(err error) {
	printer := a.printer
	if printer == nil {
		mode, parseErr := output.ParseColorMode(a.color)
		if parseErr != nil {
			mode = output.ColorAuto
		}
		printer = output.NewPrinterTo(a.opts.Out, a.opts.Err, output.ResolveColors(mode))
	}
	printer.Error(err)
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	colorSetting := cfg.Output.Color
	if a.color != "" {
		colorSetting = a.color
	}
	mode, err := output.ParseColorMode(colorSetting)
	if err != nil {
		return postboot.ErrInvalidArgument.Wrap(err, err.Error())
	}
	a.printer = output.NewPrinterTo(a.opts.Out, a.opts.Err, output.ResolveColors(mode))

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelWarn
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.opts.Err, &slog.HandlerOptions{
		Level: level,
	})).With("run_id", uuid.NewString(), "command", cmd.Name())

	a.logger.Debug("configuration loaded",
		"log_level", cfg.Log.Level,
		"color", colorSetting,
		"database_configured", cfg.Database.URL != "",
	)
	return nil
}

// withService opens the store, runs fn and closes the store again.
func (a *app) withService(ctx context.Context, fn func(*service.PostService) error) error {
	store, closeStore, err := a.opts.OpenStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			a.logger.Warn("closing store", "error", err)
		}
	}()

	return fn(service.NewPostService(store, a.logger))
}

// OpenPostgresStore connects to the database named by the configuration.
func OpenPostgresStore(ctx context.Context, cfg *config.Config) (service.PostStore, func() error, error) {
	url, err := cfg.Database.RequireURL()
	if err != nil {
		return nil, nil, err
	}

	db, err := postboot.NewSQLConfig().WithDriver("postgres").WithURL(url).Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	return repository.NewPostRepository(db), db.Close, nil
}
