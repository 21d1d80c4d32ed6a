package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cipdip/enipsim/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var httpAddress string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard over the control-plane HTTP endpoint",
		Long: `Poll a running enipsim server's control-plane HTTP endpoint once a
second and render connection and tag-error state in a terminal dashboard.`,
		Example: `  enipsim watch --http-address http://127.0.0.1:8787`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if httpAddress == "" {
				return fmt.Errorf("--http-address is required")
			}
			p := tea.NewProgram(tui.NewDashboard(httpAddress))
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&httpAddress, "http-address", "http://127.0.0.1:8787", "Control-plane HTTP base URL")
	return cmd
}
