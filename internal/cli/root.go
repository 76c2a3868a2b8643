package cli

import (
	"context"
	"fmt"

	"github.com/artpar/reqtree/internal/app"
	"github.com/artpar/reqtree/internal/config"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Option configures the root command.
type Option func(*runtime)

// WithViper sets the viper instance configuration is read through.
func WithViper(v *viper.Viper) Option {
	return func(r *runtime) {
		r.v = v
	}
}

// WithAppOptions adds options applied to the app after the loaded config.
func WithAppOptions(opts ...app.Option) Option {
	return func(r *runtime) {
		r.appOpts = append(r.appOpts, opts...)
	}
}

// runtime carries state shared by every subcommand of one invocation.
type runtime struct {
	v          *viper.Viper
	configFile string
	appOpts    []app.Option
	app        *app.App
}

// NewRootCommand creates the root command.
func NewRootCommand(version string, opts ...Option) *cobra.Command {
	r := &runtime{v: viper.New()}
	for _, opt := range opts {
		opt(r)
	}

	cmd := &cobra.Command{
		Use:           "reqtree",
		Short:         "reqtree - organize saved API requests",
		Long:          "reqtree keeps HTTP requests in collections and folders, edits them in tabs, and imports or exports the tree.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&r.configFile, "config", "", "Config file (default: ~/.reqtree/config.yaml or ./config.yaml)")
	flags.String("data-dir", "", "Directory holding stored trees")
	flags.String("user", "", "User whose tree is opened")
	flags.String("storage", "", "Storage backend: file or sqlite")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error, off")

	r.v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	r.v.BindPFlag(config.KeyUser, flags.Lookup("user"))
	r.v.BindPFlag(config.KeyStorage, flags.Lookup("storage"))
	r.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	cmd.AddCommand(NewListCommand(r))
	cmd.AddCommand(NewStatsCommand(r))
	cmd.AddCommand(NewSearchCommand(r))
	cmd.AddCommand(NewRenameCommand(r))
	cmd.AddCommand(NewDeleteCommand(r))
	cmd.AddCommand(NewMoveCommand(r))
	cmd.AddCommand(NewCollectionCommand(r))
	cmd.AddCommand(NewFolderCommand(r))
	cmd.AddCommand(NewRequestCommand(r))
	cmd.AddCommand(NewExportCommand(r))
	cmd.AddCommand(NewImportCommand(r))
	cmd.AddCommand(NewQueryCommand(r))
	cmd.AddCommand(NewHistoryCommand(r))
	cmd.AddCommand(NewShellCommand(r))

	return cmd
}

// open builds the app from the resolved configuration.
func (r *runtime) open(cmd *cobra.Command) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}

	cfg, err := config.Load(r.v, r.configFile)
	if err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	opts := []app.Option{
		app.WithConfig(*cfg),
		app.WithNotifier(workspace.NotifierFunc(func(n workspace.Notification) {
			fmt.Fprintln(stderr, n.String())
		})),
	}
	r.app = app.New(append(opts, r.appOpts...)...)
	return r.app, nil
}

func (r *runtime) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// run opens the workspace, calls fn and closes the app so queued saves are
// written before the command returns.
func (r *runtime) run(cmd *cobra.Command, fn func(ctx context.Context, ws *workspace.Store) error) (err error) {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.close(); err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()
	ws, err := a.Open(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, ws)
}

func dispatch(ws *workspace.Store, a workspace.Action, id string) (workspace.Result, error) {
	res := ws.Dispatch(a)
	if !res.Found {
		return res, fmt.Errorf("%w: %s", tree.ErrNotFound, id)
	}
	return res, nil
}
