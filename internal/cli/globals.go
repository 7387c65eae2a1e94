package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mavrogato/othones/application/window"
	"github.com/mavrogato/othones/domain/entities"
	"github.com/spf13/cobra"
)

func newGlobalsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "globals",
		Short: "List the globals the compositor advertises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			conn, cleanup, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			app := window.New(conn)
			defer app.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ConnectTimeout)
			defer cancel()
			if err := app.Discover(ctx); err != nil {
				return err
			}
			return printGlobals(cmd.OutOrStdout(), app.Globals().List(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printGlobals(w io.Writer, globals []entities.Global, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(globals)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINTERFACE\tVERSION")
	for _, g := range globals {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", g.Name, g.Interface, g.Version)
	}
	return tw.Flush()
}
