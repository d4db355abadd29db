package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/client/config"
	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	serverURL  string
	dbPath     string
	timeout    time.Duration
	legacyECB  bool
	logLevel   string
}

// loadConfig applies defaults, then the JSON file, then any flag the user
// set explicitly.
func (o *rootOptions) loadConfig(changed func(flag string) bool) (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if err := cfg.ApplyFile(o.configPath); err != nil {
		return nil, err
	}

	if changed("server") {
		cfg.ServerURL = o.serverURL
	}
	if changed("db") {
		cfg.DBPath = o.dbPath
	}
	if changed("timeout") {
		cfg.RequestTimeout = o.timeout
	}
	if changed("legacy-ecb") {
		cfg.LegacyECB = o.legacyECB
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewRootCommand builds the command tree. in feeds prompts; out receives
// normal output and errOut diagnostics.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	var app *App

	root := &cobra.Command{
		Use:           "moodjournal",
		Short:         "Encrypted mood journal client",
		Long:          `Write journal entries that are encrypted on this machine before they reach the server, read them back, and see a risk score computed locally from your mood tags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			cfg, err := opts.loadConfig(cmd.Flags().Changed)
			if err != nil {
				return err
			}
			log := logging.NewJSONLogger(errOut, cfg.LogLevel)
			app, err = NewApp(cmd.Context(), cfg, in, out, log)
			return err
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to JSON config file")
	pf.StringVarP(&opts.serverURL, "server", "a", "", "server base URL (default http://localhost:4000)")
	pf.StringVarP(&opts.dbPath, "db", "f", "", "local session database (default ~/.moodjournal/client.db)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default 15s)")
	pf.BoolVar(&opts.legacyECB, "legacy-ecb", false, "use the deterministic legacy ECB entry format (only for old data)")
	pf.StringVar(&opts.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error (default warn)")

	// withApp closes the app after fn, also when fn fails.
	withApp := func(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := app.Close(); err == nil {
					err = cerr
				}
			}()
			return fn(cmd.Context(), app, args)
		}
	}

	shell := withApp(func(ctx context.Context, a *App, _ []string) error {
		a.Shell(ctx)
		return nil
	})
	root.RunE = shell

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (default)",
		Args:  cobra.NoArgs,
		RunE:  shell,
	}

	signupCmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Signup(ctx, first(args))
		}),
	}

	loginCmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and remember the session on this machine",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Login(ctx, first(args))
		}),
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session and key",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Logout(ctx)
		}),
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Profile(ctx)
		}),
	}

	var tags []string
	writeCmd := &cobra.Command{
		Use:   "write [text...]",
		Short: "Encrypt and save a journal entry",
		Long:  `Encrypt and save a journal entry. Without text arguments the entry is read from the prompt until an empty line.`,
		Example: `  moodjournal write "rough day at work" --tags anxious
  moodjournal write --tags hopeless,anxious`,
		RunE: withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Write(ctx, strings.Join(args, " "), tags)
		}),
	}
	writeCmd.Flags().StringSliceVar(&tags, "tags", nil, "mood tags: hopeless, anxious, suicidal, fine")

	historyCmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Show decrypted entries, newest first",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.History(ctx)
		}),
	}

	analysisCmd := &cobra.Command{
		Use:     "analysis",
		Aliases: []string{"analyze"},
		Short:   "Compute the risk score over all entries",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Analysis(ctx)
		}),
	}

	var downloadPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Get a temporary link to an archive of your (encrypted) entries",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Export(ctx, downloadPath)
		}),
	}
	exportCmd.Flags().StringVarP(&downloadPath, "output", "o", "", "download the archive to this file")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Ping(ctx)
		}),
	}

	root.AddCommand(shellCmd, signupCmd, loginCmd, logoutCmd, profileCmd, writeCmd, historyCmd, analysisCmd, exportCmd, pingCmd)
	return root
}

// Execute runs the client against the process's stdio.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}
