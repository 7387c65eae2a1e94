package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mavrogato/othones/catalog"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/protocol/xdg"
	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	var schema bool
	cmd := &cobra.Command{
		Use:   "describe [interface]",
		Short: "Describe the capability kinds this client implements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := newCatalog()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listKinds(cmd.OutOrStdout(), cat)
			}
			return describeKind(cmd.OutOrStdout(), cat, args[0], schema)
		},
	}
	cmd.Flags().BoolVar(&schema, "schema", false, "print the JSON Schema of the events")
	return cmd
}

func newCatalog() (*catalog.Catalog, error) {
	cat := catalog.New()
	if err := wl.Describe(cat); err != nil {
		return nil, err
	}
	if err := xdg.Describe(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func listKinds(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERFACE\tVERSION\tEVENTS")
	for _, name := range cat.List() {
		info, _ := cat.Lookup(name)
		events := make([]string, len(info.Events))
		for i, ev := range info.Events {
			events[i] = ev.Name
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", name, info.Interface.Version, strings.Join(events, ","))
	}
	return tw.Flush()
}

func describeKind(w io.Writer, cat *catalog.Catalog, name string, schema bool) error {
	info, ok := cat.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown interface %q", name)
	}
	if schema {
		s, _ := cat.GetSchema(name)
		_, err := fmt.Fprintln(w, s)
		return err
	}
	fmt.Fprintf(w, "%s version %d\n", info.Interface.Name, info.Interface.Version)
	if len(info.Events) == 0 {
		_, err := fmt.Fprintln(w, "  no events")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, ev := range info.Events {
		fmt.Fprintf(tw, "  %d\t%s\t%q\n", i, ev.Name, ev.Signature)
	}
	return tw.Flush()
}
