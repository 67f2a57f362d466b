package cmd

import (
	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/api"
	"github.com/soocke/productivity-recorder/domain/session"
)

func newServeCmd(e *env) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Control recordings over a local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = e.cfg.ListenAddr
			}
			ctrl := e.newController()
			defer closeController(ctrl, e.logger)
			e.watchConfig(cmd.Context(), ctrl)
			srv := api.NewServer(ctrl, session.NewStore(e.cfg.OutputDir), e.cfg.Refresh(), e.logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return c
}
