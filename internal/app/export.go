package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"bithumb-backoffice/internal/storage"
)

// Export renders transaction history as CSV and/or a PNG settlement chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.AddDate(0, -1, 0)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	transactions, err := store.ListBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		a.Logger.Info().Msg("no transactions found for export window")
		return nil
	}

	// ListBetween returns newest first; exports want chronological order.
	for i, j := 0, len(transactions)-1; i < j; i, j = i+1, j-1 {
		transactions[i], transactions[j] = transactions[j], transactions[i]
	}

	downsampled := downsampleTransactions(transactions, opts.MaxPoints)
	a.Logger.Info().Int("total", len(transactions)).Int("exported", len(downsampled)).Msg("exporting transactions")

	if opts.CSVPath != "" {
		if err := writeTransactionsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeTransactionsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleTransactions(txs []storage.Transaction, max int) []storage.Transaction {
	if max <= 0 || len(txs) <= max {
		return txs
	}

	result := make([]storage.Transaction, 0, max)
	step := float64(len(txs)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(txs) {
			idx = len(txs) - 1
		}
		result = append(result, txs[idx])
	}
	return result
}

func writeTransactionsCSV(path string, txs []storage.Transaction) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"transfer_date", "order_id", "transaction_type", "order_currency", "payment_currency", "units", "price", "krw_amount", "fee", "order_balance"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, tx := range txs {
		record := []string{
			tx.TransferDate.UTC().Format(time.RFC3339),
			tx.OrderID,
			string(tx.Direction),
			tx.OrderCurrency,
			tx.PaymentCurrency,
			tx.Units.String(),
			tx.Price.String(),
			tx.KRWAmount.StringFixed(2),
			tx.Fee.String(),
			tx.OrderBalance.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeTransactionsPNG(path string, txs []storage.Transaction) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var (
		depositX, withdrawalX []time.Time
		depositY, withdrawalY []float64
	)
	for _, tx := range txs {
		switch tx.Direction {
		case storage.DirectionWithdrawal:
			withdrawalX = append(withdrawalX, tx.TransferDate)
			withdrawalY = append(withdrawalY, tx.KRWAmount.InexactFloat64())
		default:
			depositX = append(depositX, tx.TransferDate)
			depositY = append(depositY, tx.KRWAmount.InexactFloat64())
		}
	}

	amountFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}

	var series []chart.Series
	if len(depositX) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "Deposits (KRW)",
			XValues: depositX,
			YValues: depositY,
		})
	}
	if len(withdrawalX) >= 2 {
		series = append(series, chart.TimeSeries{
			Name:    "Withdrawals (KRW)",
			XValues: withdrawalX,
			YValues: withdrawalY,
		})
	}
	if len(series) == 0 {
		return errors.New("not enough data points to render chart")
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Settlement amount (KRW)",
			ValueFormatter: amountFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
