package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docembed/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var pf providerFlags
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Embed files as they are created or modified under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pf.request()
			if err != nil {
				return err
			}
			w, err := watch.NewWatcher(a.svc, req, 0, a.logger)
			if err != nil {
				return err
			}
			if err := w.Add(args[0]); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan watch.Event)
			done := make(chan error, 1)
			go func() {
				done <- w.Run(ctx, events)
				close(events)
			}()

			out := cmd.OutOrStdout()
			for ev := range events {
				if ev.Err != nil {
					fmt.Fprintf(out, "%s\terror: %v\n", ev.Path, ev.Err)
					continue
				}
				fmt.Fprintf(out, "%s\tdim=%d\t%s\n", ev.Path, len(ev.Embedding), preview(ev.Embedding, 4))
			}
			return <-done
		},
	}
	pf.register(cmd)
	return cmd
}
