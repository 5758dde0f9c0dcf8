package commands

import (
	"github.com/spf13/cobra"

	"auction-analyzer/backend/internal/config"
	"auction-analyzer/backend/internal/logging"
)

var (
	configFile string
	debug      bool

	cfg    *config.Config
	logger *logging.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "auctionctl",
		Short:         "Court-auction analysis tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			logger = logging.NewLogger(debug || cfg.Debug)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(runCmd(), migrateCmd(), taxCmd(), bidCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}
