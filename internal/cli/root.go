package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Store   string // sqlite file holding the session
	FaceURL string // remote recognition service; empty uses the local matcher
	NoDelay bool   // skip the simulated backend latency
	Seed    int64  // fixes id and face-match randomness when non-zero

	open func(context.Context, *RootOptions) (*App, error)
	app  *App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the campusctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(OpenApp)
}

func newRootCommand(open func(context.Context, *RootOptions) (*App, error)) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "campusctl",
		Short: "Campus security console",
		Long: `Sign in to the campus security console and look up students from the shell.

The session is kept in a sqlite file between runs. Student, visitor and
account records are demo data reloaded on every run, so accounts created
with signup last only for that invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "session database path (default ~/.campusctl/session.db)")
	cmd.PersistentFlags().StringVar(&opts.FaceURL, "face-url", "", "face recognition service base URL")
	cmd.PersistentFlags().BoolVar(&opts.NoDelay, "no-delay", false, "disable simulated backend latency")
	cmd.PersistentFlags().Int64Var(&opts.Seed, "seed", 0, "random seed for ids and face matches")
	_ = cmd.PersistentFlags().MarkHidden("seed")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewSignupCommand(opts))
	cmd.AddCommand(NewStudentsCommand(opts))
	cmd.AddCommand(NewRecognizeCommand(opts))

	return cmd
}

// App opens the runtime on first use and reuses it for the rest of the
// invocation.
func (o *RootOptions) App(ctx context.Context) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := o.open(ctx, o)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// commandFunc is a command body that already has its formatter and runtime.
type commandFunc func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error

// runE opens the runtime for fn and closes it afterwards, whether or not fn
// fails. A store that cannot be opened is reported before fn runs.
func (o *RootOptions) runE(fn commandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		f := o.formatter(cmd)
		app, err := o.App(cmd.Context())
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "session store unavailable", err)
		}
		defer o.close()
		return fn(cmd, args, f, app)
	}
}

func (o *RootOptions) close() {
	if o.app == nil {
		return
	}
	_ = o.app.Close()
	o.app = nil
}
