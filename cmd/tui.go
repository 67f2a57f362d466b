package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/tui"
)

func newTUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the recorder in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("tui needs an interactive terminal; use record instead")
			}
			ctrl := e.newController()
			defer closeController(ctrl, e.logger)
			e.watchConfig(cmd.Context(), ctrl)
			return tui.Run(cmd.Context(), ctrl, e.cfg.Refresh())
		},
	}
}
