package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docembed/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var (
		pf      providerFlags
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactively embed documents and compare them",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pf.request()
			if err != nil {
				return err
			}
			m := tui.New(a.svc, req, timeout)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	pf.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "timeout for each embedding request")
	return cmd
}
