package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app/httpapi"
	"github.com/R3E-Network/storefront/internal/app/metrics"
	"github.com/R3E-Network/storefront/pkg/logger"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	var (
		addr    string
		origins []string
	)
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run the in-memory reference API for local development",
		Long: `Run an in-memory storefront API with a seeded catalog. Point the client at it
with STOREFRONT_API_URL=http://<addr>. State is lost on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return WrapExitError(ExitCommandError, "listen", err)
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log := logger.NewDefault("dev-server")
			log.SetOutput(out.errWriter())
			mux.Handle("/", httpapi.NewHandler(httpapi.DevOptions{AllowedOrigins: origins, Logger: log}))
			srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			out.VerboseLog("reference API listening on http://%s", ln.Addr())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return WrapExitError(ExitCommandError, "serve", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8001", "listen address")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", []string{"http://localhost:3000"}, "browser origins allowed to call the API (\"*\" for any)")
	return cmd
}
