// Package cli implements the storefront command line. Each invocation
// builds one Application, starts it, runs a single command through the
// views and stops it.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/metrics"
	"github.com/R3E-Network/storefront/internal/config"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// RootOptions holds global flags.
type RootOptions struct {
	ConfigPath  string
	EnvFile     string
	Format      string
	Verbose     bool
	MetricsAddr string

	// newApp is swapped by tests.
	newApp func(ctx context.Context, cfg *config.Config) (*app.Application, error)
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

const stopTimeout = 5 * time.Second

// NewRootCommand creates the storefront command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "B2B storefront client",
		Long:  "Browse the catalog, search, manage your cart and start payments against a storefront API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	cmd.AddCommand(
		newProductsCommand(opts),
		newProductCommand(opts),
		newCategoriesCommand(opts),
		newSearchCommand(opts),
		newLoginCommand(opts),
		newRegisterCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newCartCommand(opts),
		newRecommendCommand(opts),
		newPayCommand(opts),
		newCryptoCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// Execute runs the command tree with args and returns the exit code. Errors
// are written through the formatter so JSON consumers always get an envelope.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	out := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
	if !isValidFormat(opts.Format) {
		out.Format = "text"
	}
	code := "COMMAND_ERROR"
	if se := sferrors.GetServiceError(err); se != nil {
		code = se.Code
	} else if GetExitCode(err) == ExitFailure {
		code = "FAILED"
	}
	_ = out.Error(code, errorMessage(err))
	return GetExitCode(err)
}

func errorMessage(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Message != "" {
		return exitErr.Message
	}
	if se := sferrors.GetServiceError(err); se != nil {
		return se.Message
	}
	return err.Error()
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.EnvFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
	}
	return cfg, nil
}

// run builds and starts an Application, runs fn and stops it. Beacons fired
// by fn get until stopTimeout to drain.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	out := o.formatter(cmd)

	build := o.newApp
	if build == nil {
		build = func(ctx context.Context, cfg *config.Config) (*app.Application, error) {
			log := logger.New(cfg.LoggerConfig())
			log.SetOutput(cmd.ErrOrStderr())
			return app.New(ctx, cfg, app.Options{Logger: log.Component("storefront")})
		}
	}
	a, err := build(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "initialize storefront", err)
	}

	stopMetrics := o.serveMetrics(cfg.Metrics.Addr, out)
	defer stopMetrics()

	var spin *spinner
	if !out.JSON() && isTerminal(out.errWriter()) {
		spin = newSpinner(out.errWriter(), "Contacting store")
		spin.start()
	}
	if err := a.Start(ctx); err != nil {
		if spin != nil {
			spin.stop()
		}
		return WrapExitError(ExitCommandError, "start storefront", err)
	}
	if spin != nil {
		spin.stop()
	}
	runErr := fn(ctx, a, out)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		out.VerboseLog("shutdown: %v", err)
	}
	return runErr
}

func (o *RootOptions) serveMetrics(addr string, out *OutputFormatter) func() {
	if addr == "" {
		return func() {}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		out.VerboseLog("metrics listener: %v", err)
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	out.VerboseLog("metrics on http://%s/metrics", ln.Addr())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// fail converts a failed Result into an exit error.
func fail(res sferrors.Result) error {
	if res.Success {
		return nil
	}
	return &ExitError{
		Code:    ExitFailure,
		Message: res.Error,
		Err:     &sferrors.ServiceError{Code: res.Code, Message: res.Error},
	}
}

// failed wraps a service error as a failure exit.
func failed(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitFailure, Message: sferrors.UserMessage(err), Err: err}
}
