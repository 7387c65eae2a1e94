package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mavrogato/othones/infrastructure/trace"
	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect event recordings made with --trace",
	}
	cmd.AddCommand(newTraceDumpCmd())
	return cmd
}

func newTraceDumpCmd() *cobra.Command {
	var diag bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print a recording, one event per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if diag {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				out, err := trace.Diagnose(data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return dumpTrace(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().BoolVar(&diag, "diag", false, "print CBOR diagnostic notation instead")
	return cmd
}

func dumpTrace(w io.Writer, r io.Reader) error {
	tr := trace.NewReader(r)
	for {
		e, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
}
