package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/lapse/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the capture control API and event stream over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		addr := serveAddr
		if addr == "" {
			addr = c.ListenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if logger.GetLevel() > hclog.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		orch := newOrchestrator(ctx, c, logger)
		h := server.NewHandlers(orch, newEnumerator(c, logger), c.Quality, logger)
		defer h.Close()

		err := server.Serve(ctx, addr, server.NewRouter(h, logger), logger, func(a net.Addr) {
			cmd.Printf("Listening on http://%s/api\n", a)
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := orch.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("recorder shutdown", "error", serr)
		}
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
