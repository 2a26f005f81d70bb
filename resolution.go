package stocks

import (
	"context"
	"fmt"

	"github.com/etnz/stocks/date"
)

// Resolution is the sampling granularity of a chart.
type Resolution int

const (
	Daily Resolution = iota
	TenDays
	Monthly
	Quarterly
	Yearly
)

func (r Resolution) String() string {
	switch r {
	case Daily:
		return "daily"
	case TenDays:
		return "every 10 days"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "every 3 months"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown resolution %d", r))
	}
}

// Next returns the sample following current. Monthly, quarterly and yearly
// samples advance by calendar months from the first day of the month, so
// each month, quarter or year is sampled once.
func (r Resolution) Next(current date.Date) date.Date {
	switch r {
	case Daily:
		return current.Add(1)
	case TenDays:
		return current.Add(10)
	case Monthly:
		return current.StartOf(date.Monthly).AddMonth(1)
	case Quarterly:
		return current.StartOf(date.Monthly).AddMonth(3)
	default:
		return current.StartOf(date.Monthly).AddMonth(12)
	}
}

// ResolutionFor picks the resolution that keeps a chart from start to end
// between roughly 5 and 60 points.
func ResolutionFor(start, end date.Date) Resolution {
	switch days := (date.Range{From: start, To: end}).Days(); {
	case days <= 30:
		return Daily
	case days <= 150:
		return TenDays
	case days <= 540:
		return Monthly
	case days <= 1825:
		return Quarterly
	default:
		return Yearly
	}
}

// TargetDate returns the date plotted for the sample at current.
//
// Daily and ten-day samples are plotted as is. Monthly samples move to the
// last working day of the month; quarterly samples to the last working day of
// the month two months ahead; yearly samples to the last working day of the
// year. Quarterly and yearly targets after end are not plotted (ok is false).
func TargetDate(current date.Date, res Resolution, end date.Date) (target date.Date, ok bool) {
	switch res {
	case Daily, TenDays:
		return current, true
	case Monthly:
		return current.EndOf(date.Monthly).LastWorkingDay(), true
	case Quarterly:
		target = date.New(current.Year(), current.Month()+3, 0).LastWorkingDay()
	case Yearly:
		target = current.EndOf(date.Yearly).LastWorkingDay()
	}
	if target.After(end) {
		return date.Date{}, false
	}
	return target, true
}

// SampleDates returns the dates to plot for a chart from start to end.
func SampleDates(start, end date.Date) (Resolution, []date.Date) {
	res := ResolutionFor(start, end)
	var dates []date.Date
	for current := start; !current.After(end); current = res.Next(current) {
		if target, ok := TargetDate(current, res, end); ok {
			dates = append(dates, target)
		}
	}
	return res, dates
}

// checkRange validates an analysis range: start must be before end, and end
// must not be after today.
func checkRange(start, end, today date.Date) error {
	if !start.Before(end) || !(date.Range{From: start, To: today}).Contains(end) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidDateRange, start, end)
	}
	return nil
}

// Point is a sampled value of a chart.
type Point struct {
	Date  date.Date
	Value Money
}

// Performance is the value of a symbol or portfolio sampled over a range.
type Performance struct {
	ID         Identifier
	Resolution Resolution
	Points     []Point
}

// Return is the change from the first valued point to the last point. Points
// before the symbol traded, or before the portfolio held anything, are zero
// and skipped.
func (p *Performance) Return() Percent {
	for _, pt := range p.Points {
		if !pt.Value.IsZero() {
			return PercentChange(pt.Value, p.Points[len(p.Points)-1].Value)
		}
	}
	return 0
}

// Performance samples the value of id between start and end. Symbols are
// valued at their last close, portfolios at their market value.
func (r *Registry) Performance(ctx context.Context, id Identifier, start, end date.Date) (*Performance, error) {
	if err := checkRange(start, end, r.Today()); err != nil {
		return nil, err
	}

	var value func(date.Date) (Money, error)
	switch id.Kind {
	case PortfolioKind:
		p, err := r.Get(id.Name)
		if err != nil {
			return nil, err
		}
		if err := r.prices.warm(ctx, p.Symbols()...); err != nil {
			return nil, err
		}
		value = func(d date.Date) (Money, error) { return p.ValueAsOf(ctx, r.prices, d) }
	default:
		if err := r.prices.Validate(ctx, id.Name); err != nil {
			return nil, err
		}
		value = func(d date.Date) (Money, error) { return r.prices.LastClosePrice(ctx, id.Name, d) }
	}

	res, dates := SampleDates(start, end)
	perf := &Performance{ID: id, Resolution: res}
	for _, d := range dates {
		v, err := value(d)
		if err != nil {
			return nil, err
		}
		perf.Points = append(perf.Points, Point{Date: d, Value: v})
	}
	return perf, nil
}
