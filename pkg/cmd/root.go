package cmd

import (
	"os"

	"github.com/skillset/skillset/pkg/config"
	"github.com/skillset/skillset/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	flagCacheDir  string
	flagPlainHTTP bool
	flagDebug     bool

	// settings holds the resolved tool settings, available to all
	// subcommands after PersistentPreRunE completes.
	settings *config.Settings
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "skillset",
		Short: "Skill package manager",
		Long:  "skillset installs, organizes, and publishes coding-agent skills from git repositories, OCI registries, and local directories.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}

			flags := config.Flags{}
			if cmd.Flags().Changed("cache-dir") {
				flags.CacheDir = &flagCacheDir
			}
			if cmd.Flags().Changed("plain-http") {
				flags.PlainHTTP = &flagPlainHTTP
			}
			if cmd.Flags().Changed("debug") {
				flags.Debug = &flagDebug
			}

			s, err := config.LoadSettings(wd, flags)
			if err != nil {
				return err
			}
			settings = s

			logger.Initialize(settings.Debug)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "override the cache directory")
	root.PersistentFlags().BoolVar(&flagPlainHTTP, "plain-http", false, "use plain HTTP for registry access")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newConventionCmd())
	root.AddCommand(newPublishCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
