package stocks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/etnz/stocks/date"
	"github.com/shopspring/decimal"
)

// OHLCV is the daily open, high, low, close and volume of a symbol.
type OHLCV struct {
	Date   date.Date
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// IsZero reports whether o is the zero record, i.e. no data.
func (o OHLCV) IsZero() bool {
	return o.Date.IsZero() && o.Volume == 0 && o.Open.IsZero() && o.Close.IsZero()
}

// Equal reports whether o and p hold the same values.
func (o OHLCV) Equal(p OHLCV) bool {
	return o.Date == p.Date && o.Open.Equal(p.Open) && o.High.Equal(p.High) &&
		o.Low.Equal(p.Low) && o.Close.Equal(p.Close) && o.Volume == p.Volume
}

// parseOHLCV parses the fields "date,open,high,low,close,volume".
func parseOHLCV(fields []string) (OHLCV, error) {
	if len(fields) < 6 {
		return OHLCV{}, fmt.Errorf("want 6 fields got %d", len(fields))
	}
	on, err := date.Parse(fields[0])
	if err != nil {
		return OHLCV{}, err
	}
	o := OHLCV{Date: on}
	for i, dst := range []*decimal.Decimal{&o.Open, &o.High, &o.Low, &o.Close} {
		v, err := decimal.NewFromString(strings.TrimSpace(fields[i+1]))
		if err != nil {
			return OHLCV{}, fmt.Errorf("invalid price %q: %w", fields[i+1], err)
		}
		*dst = v
	}
	if o.Close.IsNegative() {
		return OHLCV{}, fmt.Errorf("negative close %s", o.Close)
	}
	// Some providers publish fractional volumes, keep the integer part.
	vol, err := decimal.NewFromString(strings.TrimSpace(fields[5]))
	if err != nil {
		return OHLCV{}, fmt.Errorf("invalid volume %q: %w", fields[5], err)
	}
	o.Volume = vol.IntPart()
	return o, nil
}

// formatOHLCV is the reverse of parseOHLCV.
func formatOHLCV(o OHLCV) []string {
	return []string{
		o.Date.String(),
		o.Open.String(),
		o.High.String(),
		o.Low.String(),
		o.Close.String(),
		strconv.FormatInt(o.Volume, 10),
	}
}

// DecodeSeries reads a daily series in the "date,open,high,low,close,volume"
// CSV format. The first line is a header and is skipped. Rows can come in
// any order.
func DecodeSeries(r io.Reader) ([]OHLCV, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read series header: %w", err)
	}

	var series []OHLCV
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return series, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read series line %d: %w", line, err)
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		o, err := parseOHLCV(fields)
		if err != nil {
			return nil, fmt.Errorf("parse error on series line %d: %w", line, err)
		}
		series = append(series, o)
	}
}
