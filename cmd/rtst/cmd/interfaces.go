package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voluzi/rtst/pkg/netif"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "Lists the network interfaces available for monitoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := netif.Available(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
