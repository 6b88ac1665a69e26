package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/rtst/pkg/environ"
	"github.com/voluzi/rtst/pkg/rtst"
)

var since int64

var queryCmd = &cobra.Command{
	Use:       "query [cpu|io_bw|mem|net]",
	Short:     "Fetches history from a running server",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{rtst.TypeCPU, rtst.TypeIO, rtst.TypeMemory, rtst.TypeNetwork},
	RunE: func(cmd *cobra.Command, args []string) error {
		queryType := rtst.TypeCPU
		if len(args) > 0 {
			queryType = args[0]
		}

		client := rtst.NewClient(serverName, serverPort)
		doc, err := client.Query(cmd.Context(), queryType, since)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"type": queryType,
			"rows": doc.Len(),
			"last": doc.Last(),
		}).Debug("received history")

		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	queryCmd.Flags().Int64Var(&since, "since",
		int64(environ.GetInt(environ.Key("since"), 0)),
		"Only return samples newer than this epoch millisecond timestamp",
	)
}
