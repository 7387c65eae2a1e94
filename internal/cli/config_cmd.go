package cli

import (
	"fmt"

	"github.com/mavrogato/othones/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every setting with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if f := v.ConfigFileUsed(); f != "" {
				fmt.Fprintf(out, "# file: %s\n", f)
			}
			for _, o := range config.GetConfigOptions() {
				fmt.Fprintf(out, "%s = %v  # %s\n", o.Key, v.Get(o.Key), o.Comment)
			}
			return nil
		},
	})
	return cmd
}
