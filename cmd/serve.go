package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naka-gawa/pr-size-audit/internal/handler"
	"github.com/naka-gawa/pr-size-audit/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves audits over HTTP",
	Long:  `Starts an HTTP server answering GET /api/audit/{username} with the audit report as JSON.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer logging.Sync(a.logger)

		server := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           handler.NewRouter(handler.NewAuditHandler(a.auditor, a.cfg.Server.AuditTimeout, a.logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("listening", zap.String("addr", server.Addr))
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	cobra.CheckErr(v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")))
}
