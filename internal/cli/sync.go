package cli

import (
	"github.com/spf13/cobra"

	"bithumb-backoffice/internal/app"
)

var (
	syncCurrency string
	syncCount    int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SyncOptions{
			Currency: syncCurrency,
			Count:    syncCount,
		}

		return getApp().Sync(cmd.Context(), opts)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncCurrency, "currency", "", "Currency code to sync, or ALL (defaults to config)")
	syncCmd.Flags().IntVar(&syncCount, "count", 0, "Number of records to request (defaults to config)")
}
