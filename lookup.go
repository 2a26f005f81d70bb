package stocks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/etnz/stocks/date"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// lookback is the number of calendar days LastClosePrice walks back to find
// the most recent trading day.
const lookback = 4

// defaultWorkers bounds the number of concurrent backfills of Prefetch.
const defaultWorkers = 4

// Lookup resolves prices from a Cache, backfilling it from a PriceSource on
// a miss.
//
// A missing price for an otherwise valid date is not an error: it resolves to
// zero. Callers cannot distinguish "no data" from a true zero price.
type Lookup struct {
	cache   *Cache
	source  PriceSource
	workers int
	group   singleflight.Group
}

// NewLookup returns a Lookup reading from cache and filling it from source.
func NewLookup(cache *Cache, source PriceSource) *Lookup {
	return &Lookup{cache: cache, source: source, workers: defaultWorkers}
}

// SetWorkers sets the number of concurrent backfills used by Prefetch.
func (l *Lookup) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	l.workers = n
}

// Cache returns the cache used by l.
func (l *Lookup) Cache() *Cache { return l.cache }

// normalize returns the canonical form of a symbol.
func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }

// backfill fetches the full series of symbol and stores it in the cache.
// Concurrent calls for the same symbol share a single fetch.
func (l *Lookup) backfill(ctx context.Context, symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidSymbol)
	}
	_, err, _ := l.group.Do(symbol, func() (any, error) {
		if l.cache.Backfilled(symbol) {
			return nil, nil
		}
		series, err := l.source.FetchSeries(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch %s prices: %w", symbol, err)
		}
		if len(series) == 0 {
			return nil, fmt.Errorf("%w: no prices for %s", ErrInvalidSymbol, symbol)
		}
		l.cache.PutAll(symbol, series)
		log.Printf("backfilled %d prices for %s", len(series), symbol)
		return nil, nil
	})
	return err
}

// OHLCV returns the record of symbol on day, backfilling the cache on a miss.
// The zero OHLCV is returned when the provider has no data for that day.
func (l *Lookup) OHLCV(ctx context.Context, symbol string, day date.Date) (OHLCV, error) {
	symbol = normalize(symbol)
	if o, ok := l.cache.Get(symbol, day); ok {
		return o, nil
	}
	if l.cache.Backfilled(symbol) {
		return OHLCV{}, nil
	}
	if err := l.backfill(ctx, symbol); err != nil {
		return OHLCV{}, err
	}
	o, _ := l.cache.Get(symbol, day)
	return o, nil
}

// PriceOnDate returns the close of symbol on day, or zero if there was no
// trading that day.
func (l *Lookup) PriceOnDate(ctx context.Context, symbol string, day date.Date) (Money, error) {
	o, err := l.OHLCV(ctx, symbol, day)
	if err != nil {
		return Money{}, err
	}
	return M(o.Close), nil
}

// LastClosePrice returns the close on day or on the closest previous day
// with data, looking back at most 4 calendar days. It returns zero if
// none is found.
func (l *Lookup) LastClosePrice(ctx context.Context, symbol string, day date.Date) (Money, error) {
	for i := 0; i <= lookback; i++ {
		price, err := l.PriceOnDate(ctx, symbol, day.Add(-i))
		if err != nil {
			return Money{}, err
		}
		if !price.IsZero() {
			return price, nil
		}
	}
	return Money{}, nil
}

// Validate checks that symbol is known by the price source.
func (l *Lookup) Validate(ctx context.Context, symbol string) error {
	symbol = normalize(symbol)
	if l.cache.Backfilled(symbol) {
		return nil
	}
	return l.backfill(ctx, symbol)
}

// warm prefetches symbols before a computation that reads them all. It does
// nothing when the cache cannot hold them together: prefetching would evict
// the first symbols before they are read, so each one is backfilled on
// demand instead.
func (l *Lookup) warm(ctx context.Context, symbols ...string) error {
	if !l.cache.Fits(len(symbols)) {
		log.Printf("cache too small to prefetch %d symbols, fetching on demand", len(symbols))
		return nil
	}
	return l.Prefetch(ctx, symbols...)
}

// Prefetch backfills all symbols concurrently, at most SetWorkers at a time.
// Symbols already backfilled are skipped. All failures are reported.
func (l *Lookup) Prefetch(ctx context.Context, symbols ...string) error {
	var g errgroup.Group
	g.SetLimit(l.workers)

	errs := make([]error, len(symbols))
	for i, symbol := range symbols {
		symbol = normalize(symbol)
		if l.cache.Backfilled(symbol) {
			continue
		}
		g.Go(func() error {
			// failures are collected rather than returned so that one
			// invalid symbol does not cancel the others.
			errs[i] = l.backfill(ctx, symbol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
