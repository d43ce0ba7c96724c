package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints the most recent transactions.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	transactions, err := store.ListRecent(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Fprintln(os.Stdout, "no transactions found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Transferred (UTC)\tOrder ID\tType\tCurrency\tUnits\tPrice\tAmount\tFee")

	for _, tx := range transactions {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.TransferDate.UTC().Format(time.RFC3339),
			tx.OrderID,
			tx.Direction,
			tx.OrderCurrency,
			tx.Units.String(),
			tx.Price.String(),
			tx.KRWAmount.StringFixed(2),
			tx.Fee.String(),
		)
	}

	writer.Flush()
	return nil
}
