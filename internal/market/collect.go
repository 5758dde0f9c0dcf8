package market

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"auction-analyzer/backend/pkg/models"
)

const fetchParallelism = 10

// Source fetches one month of records for a district.
type Source interface {
	Trades(ctx context.Context, lawdCode, yearMonth string, kind Kind) ([]models.Transaction, error)
	Rents(ctx context.Context, lawdCode, yearMonth string, kind Kind) ([]models.RentTransaction, error)
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Collector gathers the recent history of a district from a Source.
type Collector struct {
	source      Source
	logger      Logger
	tradeMonths int
	rentMonths  int
	now         func() time.Time
}

// NewCollector creates a Collector fetching tradeMonths of sales and
// rentMonths of leases.
func NewCollector(source Source, tradeMonths, rentMonths int, logger Logger) *Collector {
	if tradeMonths <= 0 {
		tradeMonths = 60
	}
	if rentMonths <= 0 {
		rentMonths = 12
	}
	return &Collector{
		source:      source,
		logger:      logger,
		tradeMonths: tradeMonths,
		rentMonths:  rentMonths,
		now:         time.Now,
	}
}

// YearMonths returns the n months ending at now as YYYYMM, newest first.
func YearMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, first.AddDate(0, -i, 0).Format("200601"))
	}
	return out
}

// Collect fetches trades and rents concurrently. Months that fail are
// logged and skipped.
func (c *Collector) Collect(ctx context.Context, lawdCode string, kind Kind) ([]models.Transaction, []models.RentTransaction) {
	now := c.now()
	trades := fetchMonths(ctx, c.logger, "trade", YearMonths(now, c.tradeMonths),
		func(ctx context.Context, ym string) ([]models.Transaction, error) {
			return c.source.Trades(ctx, lawdCode, ym, kind)
		})
	rents := fetchMonths(ctx, c.logger, "rent", YearMonths(now, c.rentMonths),
		func(ctx context.Context, ym string) ([]models.RentTransaction, error) {
			return c.source.Rents(ctx, lawdCode, ym, kind)
		})
	c.logger.Debug("market data collected", "lawd_code", lawdCode, "kind", kind, "trades", len(trades), "rents", len(rents))
	return trades, rents
}

func fetchMonths[T any](ctx context.Context, logger Logger, deal string, months []string, fetch func(context.Context, string) ([]T, error)) []T {
	results := make([][]T, len(months))
	var g errgroup.Group
	g.SetLimit(fetchParallelism)
	for i, ym := range months {
		g.Go(func() error {
			items, err := fetch(ctx, ym)
			if err != nil {
				logger.Warn("market fetch failed", "deal", deal, "month", ym, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var out []T
	for _, items := range results {
		out = append(out, items...)
	}
	return out
}
