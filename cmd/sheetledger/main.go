package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sheetledger/internal/cli"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "sheetledger",
	Short: "Track expenses and income in a Google Sheet",
	Long: `sheetledger serves a small web page for recording expenses and income.
Entries are stored in a spreadsheet named after LEDGER_RESOURCE_NAME in the
signed-in user's Google Drive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.LoadEnvFile(envFile)
	},
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(oauthCmd())
}
