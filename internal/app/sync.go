package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"bithumb-backoffice/internal/sync"
)

// Sync runs one synchronization pass and prints the resulting summary.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	engine := a.newEngine(a.newClient(), store)

	currency := opts.Currency
	if currency == "" {
		currency = a.Config.Sync.DefaultCurrency
	}
	count := opts.Count
	if count <= 0 {
		count = a.Config.Sync.DefaultCount
	}

	report, err := engine.SyncAndSummarize(ctx, currency, count)
	if err != nil {
		return err
	}

	printReport(currency, report)
	return nil
}

func printReport(currency string, report *sync.Report) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Summary for %s\n", currency)
	fmt.Fprintln(writer, "Direction\tCount\tTotal Amount\tTotal Fee")
	fmt.Fprintf(writer, "DEPOSIT\t%d\t%s\t%s\n",
		report.DepositSummary.Count,
		report.DepositSummary.TotalAmount.StringFixed(2),
		report.DepositSummary.TotalFee.StringFixed(2),
	)
	fmt.Fprintf(writer, "WITHDRAWAL\t%d\t%s\t%s\n",
		report.WithdrawalSummary.Count,
		report.WithdrawalSummary.TotalAmount.StringFixed(2),
		report.WithdrawalSummary.TotalFee.StringFixed(2),
	)
	fmt.Fprintf(writer, "TOTAL\t%d\t\t\n", report.TotalCount)
	writer.Flush()
}
