package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProvidersCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List registered provider modules and types",
		RunE: func(cmd *cobra.Command, args []string) error {
			mods := a.svc.Providers()
			w := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(mods)
			case formatText:
			default:
				return fmt.Errorf("invalid format %q: expected json or text", format)
			}

			def := a.svc.DefaultProvider()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODULE\tTYPE\tCONSTRUCTIBLE\tDESCRIPTION")
			for _, m := range mods {
				for _, t := range m.Types {
					name := t.Name
					if m.Name == def.Module && t.Name == def.Type {
						name += " (default)"
					}
					fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", m.Name, name, t.Constructible, t.Description)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: json or text")
	return cmd
}
