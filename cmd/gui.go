package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/app"
)

func newGUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the recorder window (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd.Context(), e)
		},
	}
}

func runGUI(ctx context.Context, e *env) error {
	ctrl := e.newController()
	e.watchConfig(ctx, ctrl)
	return app.New("Productivity Recorder", 760, 820, e.cfg, e.cfgPath, ctrl, e.logger).Run(ctx)
}
