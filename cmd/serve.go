package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/casequiz/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment engine over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadDeps(cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = rt.cfg.HTTPAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		router := api.NewRouter(api.RouterConfig{
			Engine:       rt.engine,
			Logger:       rt.log,
			AllowOrigins: rt.cfg.CORSOrigins,
		})
		return api.NewServer(addr, router, rt.cfg.ShutdownTimeout, rt.log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides CASEQUIZ_HTTP_ADDR)")
}
