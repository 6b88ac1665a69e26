package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/rtst/pkg/environ"
	"github.com/voluzi/rtst/pkg/rtst"
)

var logLevel string
var configFile string
var serverName string
var serverPort int

var rootCmd = &cobra.Command{
	Use:   "rtst",
	Short: "Real-time system telemetry",
	Long: `rtst samples CPU, paging, memory and network counters with sar, keeps a
rolling history in memory and serves it to polling browser clients as JSON.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			values, err := loadConfigFile(configFile)
			if err != nil {
				return err
			}
			if err := applyConfig(cmd.Flags(), values, flagNames(cmd.Root())); err != nil {
				return err
			}
		}

		logLvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(logLvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		environ.GetString(environ.Key("log-level"), "info"),
		"Log level. One of trace, debug, info, warn, error, fatal, panic.",
	)
	rootCmd.PersistentFlags().StringVar(&configFile,
		"config",
		environ.GetString(environ.Key("config"), ""),
		"TOML or YAML file with settings keyed by flag name. Flags take precedence.",
	)
	rootCmd.PersistentFlags().StringVar(&serverName, "server-name",
		environ.GetString(environ.Key("server-name"), rtst.DefaultServerName),
		"Hostname browser clients use to reach the server",
	)
	rootCmd.PersistentFlags().IntVar(&serverPort, "server-port",
		environ.GetInt(environ.Key("server-port"), rtst.DefaultPort),
		"TCP port the server listens on",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(queryCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
