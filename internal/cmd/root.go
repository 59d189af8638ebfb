package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-narrator/internal/config"
	"github.com/teslashibe/go-narrator/internal/log"
)

var (
	logLevel string
	appCfg   *config.App
)

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "A camera-driven narration assistant",
	Long: `narrator watches a camera, warns out loud about objects approaching
the wearer and describes the scene on request.

Settings come from the environment (and .env); flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		log.Init(cfg.LogLevel)
		appCfg = cfg
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn or error")
}
