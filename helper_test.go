package stocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/etnz/stocks/date"
	"github.com/shopspring/decimal"
)

// fakeSource serves fixed series and counts the fetches per symbol.
type fakeSource struct {
	mu     sync.Mutex
	series map[string][]OHLCV
	calls  map[string]int
}

func newFakeSource(series map[string][]OHLCV) *fakeSource {
	return &fakeSource{series: series, calls: make(map[string]int)}
}

func (f *fakeSource) FetchSeries(ctx context.Context, symbol string) ([]OHLCV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	s, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSymbol, symbol)
	}
	return s, nil
}

func (f *fakeSource) count(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

// bar is a helper for test to create a record from float prices.
func bar(day string, open, close float64) OHLCV {
	o, c := decimal.NewFromFloat(open), decimal.NewFromFloat(close)
	return OHLCV{Date: date.MustParse(day), Open: o, High: decimal.Max(o, c), Low: decimal.Min(o, c), Close: c, Volume: 1000}
}

// weekdays returns a constant close on every weekday from from to to inclusive.
func weekdays(from, to string, close float64) []OHLCV {
	var s []OHLCV
	for d := range (date.Range{From: date.MustParse(from), To: date.MustParse(to)}).All() {
		if !d.IsWeekend() {
			s = append(s, bar(d.String(), close, close))
		}
	}
	return s
}

// fixedToday is a helper for test to freeze the clock.
func fixedToday(day string) func() date.Date {
	d := date.MustParse(day)
	return func() date.Date { return d }
}
