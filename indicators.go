package stocks

import (
	"context"
	"fmt"

	"github.com/etnz/stocks/date"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// CrossoverWindow is the moving average window used by CrossoverDays.
const CrossoverWindow = 30

// Indicators computes trend indicators from daily closes.
type Indicators struct {
	prices *Lookup

	// Today returns the current date. Ranges ending after it are rejected.
	Today func() date.Date
}

// NewIndicators returns indicators reading prices from prices.
func NewIndicators(prices *Lookup) *Indicators {
	return &Indicators{prices: prices, Today: date.Today}
}

// closeOn returns the close of symbol on day as a float, 0 on non trading days.
func (in *Indicators) closeOn(ctx context.Context, symbol string, day date.Date) (float64, error) {
	price, err := in.prices.PriceOnDate(ctx, symbol, day)
	if err != nil {
		return 0, err
	}
	return price.Float(), nil
}

// average returns the mean close over the window days ending on end. Days
// without a close are ignored; ok is false if there is none.
func (in *Indicators) average(ctx context.Context, symbol string, end date.Date, window int) (mean float64, ok bool, err error) {
	closes := make([]float64, 0, window)
	for i := window - 1; i >= 0; i-- {
		c, err := in.closeOn(ctx, symbol, end.Add(-i))
		if err != nil {
			return 0, false, err
		}
		if c != 0 {
			closes = append(closes, c)
		}
	}
	if len(closes) == 0 {
		return 0, false, nil
	}
	mean, err = stats.Mean(closes)
	if err != nil {
		return 0, false, err
	}
	return mean, true, nil
}

// MovingAverage returns the mean close of symbol over the window calendar
// days ending on end, inclusive. Days without trading are not counted. It
// returns zero if no day of the window has a close.
func (in *Indicators) MovingAverage(ctx context.Context, symbol string, end date.Date, window int) (Money, error) {
	if window <= 0 {
		return Money{}, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidWindow, window)
	}
	symbol = normalize(symbol)
	if err := in.prices.Validate(ctx, symbol); err != nil {
		return Money{}, err
	}
	mean, _, err := in.average(ctx, symbol, end, window)
	if err != nil {
		return Money{}, err
	}
	return M(decimal.NewFromFloat(mean).Round(4)), nil
}

// checkRange validates an analysis range.
func (in *Indicators) checkRange(start, end date.Date) error {
	return checkRange(start, end, in.Today())
}

// tradingDays iterates over the days of [start, end] with a close, preceded
// by the last trading day before start if there is one within lookback days.
// f receives the day and its close price; returning an error stops the iteration.
func (in *Indicators) tradingDays(ctx context.Context, symbol string, start, end date.Date, f func(day date.Date, price float64, seed bool) error) error {
	for i := 1; i <= lookback; i++ {
		day := start.Add(-i)
		c, err := in.closeOn(ctx, symbol, day)
		if err != nil {
			return err
		}
		if c != 0 {
			if err := f(day, c, true); err != nil {
				return err
			}
			break
		}
	}
	for day := range (date.Range{From: start, To: end}).All() {
		c, err := in.closeOn(ctx, symbol, day)
		if err != nil {
			return err
		}
		if c == 0 {
			continue
		}
		if err := f(day, c, false); err != nil {
			return err
		}
	}
	return nil
}

// CrossoverDays returns the days between start and end where the close
// crossed above its 30-day moving average: the previous trading day closed
// below its average and the day closed above its own.
func (in *Indicators) CrossoverDays(ctx context.Context, symbol string, start, end date.Date) ([]date.Date, error) {
	if err := in.checkRange(start, end); err != nil {
		return nil, err
	}
	symbol = normalize(symbol)
	if err := in.prices.Validate(ctx, symbol); err != nil {
		return nil, err
	}

	var days []date.Date
	wasBelow := false
	err := in.tradingDays(ctx, symbol, start, end, func(day date.Date, price float64, seed bool) error {
		ma, _, err := in.average(ctx, symbol, day, CrossoverWindow)
		if err != nil {
			return err
		}
		if !seed && wasBelow && price > ma {
			days = append(days, day)
		}
		wasBelow = price < ma
		return nil
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

// Crossovers are the days where a short moving average crosses a long one.
type Crossovers struct {
	Golden []date.Date // short crossed above long
	Death  []date.Date // short crossed below long
	All    []date.Date // both, in date order
}

// MovingCrossoverDays compares the short and long moving averages of symbol
// every trading day between start and end and reports the days where their
// relative position flips.
func (in *Indicators) MovingCrossoverDays(ctx context.Context, symbol string, start, end date.Date, short, long int) (*Crossovers, error) {
	if short <= 0 || long <= 0 || short >= long {
		return nil, fmt.Errorf("%w: short %d must be positive and below long %d", ErrInvalidWindow, short, long)
	}
	if err := in.checkRange(start, end); err != nil {
		return nil, err
	}
	symbol = normalize(symbol)
	if err := in.prices.Validate(ctx, symbol); err != nil {
		return nil, err
	}

	crossovers := new(Crossovers)
	var wasAbove, known bool
	err := in.tradingDays(ctx, symbol, start, end, func(day date.Date, _ float64, seed bool) error {
		s, _, err := in.average(ctx, symbol, day, short)
		if err != nil {
			return err
		}
		l, _, err := in.average(ctx, symbol, day, long)
		if err != nil {
			return err
		}
		above := s > l
		if known && !seed {
			switch {
			case !wasAbove && above:
				crossovers.Golden = append(crossovers.Golden, day)
				crossovers.All = append(crossovers.All, day)
			case wasAbove && !above:
				crossovers.Death = append(crossovers.Death, day)
				crossovers.All = append(crossovers.All, day)
			}
		}
		wasAbove, known = above, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return crossovers, nil
}

// Trend classifies the move of a single day.
type Trend int

const (
	Unchanged Trend = iota
	Gained
	Lost
)

func (t Trend) String() string {
	switch t {
	case Gained:
		return "gained"
	case Lost:
		return "lost"
	default:
		return "unchanged"
	}
}

// DayMove is the move of a symbol during a day.
type DayMove struct {
	Symbol string
	Date   date.Date
	Trend  Trend
	Change Money // close - open
	// Percent is Change relative to the open.
	Percent Percent
}

// GainLoss compares the close of symbol on day to its open. Days without
// data are Unchanged.
func (in *Indicators) GainLoss(ctx context.Context, symbol string, day date.Date) (DayMove, error) {
	symbol = normalize(symbol)
	o, err := in.prices.OHLCV(ctx, symbol, day)
	if err != nil {
		return DayMove{}, err
	}
	change := M(o.Close.Sub(o.Open))
	move := DayMove{Symbol: symbol, Date: day, Change: change, Percent: PercentChange(M(o.Open), M(o.Close))}
	switch {
	case change.IsPositive():
		move.Trend = Gained
	case change.IsNegative():
		move.Trend = Lost
	}
	return move, nil
}
