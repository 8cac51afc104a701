package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// Missing .env is fine; the config file and environment still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "bitfarm",
		Short:         "bitfarm: multi-account rewards farming bot",
		Long:          "bitfarm drives the BitApp rewards API for every account in the manifest: token refresh, daily check-ins, task completion, rewarded-ad watching, timed speedtest claims, vouchers and the mini-game.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newStatusCmd(app),
		newVouchersCmd(app),
		newAccountsCmd(app),
	)

	return rootCmd
}
