package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/coachkit"
	"github.com/dmitrymomot/coachkit/internal/testserver"
	"github.com/dmitrymomot/coachkit/pkg/apiclient"
	"github.com/dmitrymomot/coachkit/pkg/config"
	"github.com/dmitrymomot/coachkit/pkg/logger"
	"github.com/dmitrymomot/coachkit/pkg/requestid"
)

var errNotSignedIn = errors.New("not signed in, run `coachctl login` first")

// app holds the global flags shared by every command.
type app struct {
	output      string
	verbose     bool
	envFile     string
	apiURL      string
	sessionFile string
	persist     bool
	profile     string

	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the coachctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "coachctl",
		Short: "coachctl talks to the coaching platform API",
		Long: `A command line client for the coaching platform API.
With APP_ENV=development and --persist (or DEV_PERSIST_REFRESH=true) the
session is kept between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
			switch a.output {
			case outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q", a.output)
			}
			if a.envFile != "" {
				return config.LoadEnv(a.envFile)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.output, "output", "o", outputJSON, "output format: json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and session events")
	flags.StringVar(&a.envFile, "env-file", "", "load environment variables from this file")
	flags.StringVar(&a.apiURL, "api-url", "", "API base URL, overrides API_BASE_URL")
	flags.StringVar(&a.sessionFile, "session-file", "", "bbolt file holding the refresh secret, overrides DEV_SECRET_PATH")
	flags.BoolVar(&a.persist, "persist", false, "keep the session between invocations (requires APP_ENV=development)")
	flags.StringVar(&a.profile, "profile", "", "read configuration from <PROFILE>_ prefixed variables, e.g. STAGING_API_BASE_URL")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.registerCmd(),
		a.whoamiCmd(),
		a.tokenCmd(),
		a.getCmd(),
	)

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", describe(err))
		os.Exit(1)
	}
}

func describe(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (%s)", apiclient.Humanize(err), apiErr.Error())
	}
	return err.Error()
}

// withKit builds a Kit for the duration of fn.
func (a *app) withKit(ctx context.Context, fn func(context.Context, *coachkit.Kit) error) error {
	cfg, err := coachkit.LoadProfileConfig(a.profile)
	if err != nil {
		return err
	}

	log := a.logger(cfg)
	opts := []coachkit.Option{coachkit.WithLogger(log)}

	if a.apiURL != "" {
		opts = append(opts, coachkit.WithBaseURL(a.apiURL))
	}
	if a.sessionFile != "" {
		cfg.DevSecretPath = a.sessionFile
	}
	cfg.DevPersistRefresh = cfg.DevPersistRefresh || a.persist

	if cfg.MockAPI && a.apiURL == "" {
		srv := testserver.New()
		defer srv.Close()
		log.InfoContext(ctx, "using in-process mock API", slog.String("url", srv.URL))
		cfg.DevPersistRefresh = false
		opts = append(opts, coachkit.WithBaseURL(srv.URL))
	}

	kit, err := coachkit.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := kit.Close(); err != nil {
			log.WarnContext(ctx, "closing client", logger.Error(err))
		}
	}()

	return fn(ctx, kit)
}

// restore resumes the stored session.
func restore(ctx context.Context, kit *coachkit.Kit) error {
	ok, err := kit.Start(ctx).AwaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotSignedIn
	}
	return nil
}

func (a *app) logger(cfg coachkit.Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Environment, "coachctl"),
		logger.WithOutput(a.stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if !a.verbose {
		opts = append(opts, logger.WithLevel(slog.LevelWarn))
	}
	return logger.New(opts...)
}
