package stocks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stocks/date"
)

// This file persists portfolios as a single CSV file:
//
//	Portfolio Name,Stock Symbol,Quantity,Purchase Price,Purchase Date,Portfolio Type
//
// Each row is a transaction; a negative quantity is a sale. Rows are replayed
// in file order, so the encoder writes each ledger chronologically. A row
// with an empty symbol declares a portfolio without transactions.

var portfolioHeader = []string{"Portfolio Name", "Stock Symbol", "Quantity", "Purchase Price", "Purchase Date", "Portfolio Type"}

// EncodePortfolios writes all portfolios of r to w.
func EncodePortfolios(w io.Writer, r *Registry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(portfolioHeader); err != nil {
		return err
	}
	for _, p := range r.portfolios {
		written := false
		for _, l := range p.ledgers {
			for on, tx := range l.Transactions() {
				row := []string{p.name, l.Symbol(), tx.Quantity.String(), tx.Price.Decimal().String(), on.String(), p.kind}
				if err := cw.Write(row); err != nil {
					return err
				}
				written = true
			}
		}
		if !written {
			if err := cw.Write([]string{p.name, "", "", "", "", p.kind}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodePortfolios replays the rows read from rd into r. Portfolios are
// created on their first row.
func DecodePortfolios(rd io.Reader, r *Registry) error {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("cannot read portfolio header: %w", err)
	}

	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cannot read portfolio line %d: %w", line, err)
		}
		if err := decodePortfolioRow(r, fields); err != nil {
			return fmt.Errorf("parse error on portfolio line %d: %w", line, err)
		}
	}
}

func decodePortfolioRow(r *Registry, fields []string) error {
	if len(fields) < 5 {
		return fmt.Errorf("want at least 5 fields got %d", len(fields))
	}
	name, symbol := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
	kind := ""
	if len(fields) > 5 {
		kind = fields[5]
	}

	p, err := r.Get(name)
	if errors.Is(err, ErrPortfolioNotFound) {
		p, err = r.Create(name, kind)
	}
	if err != nil {
		return err
	}
	if symbol == "" {
		return nil
	}

	q, err := ParseQuantity(strings.TrimSpace(fields[2]))
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", fields[2], err)
	}
	price, err := ParseMoney(strings.TrimSpace(fields[3]))
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", fields[3], err)
	}
	on, err := date.Parse(fields[4])
	if err != nil {
		return err
	}

	l := p.ledger(symbol)
	switch {
	case q.IsPositive():
		return l.Buy(q, on, price)
	case q.IsNegative():
		return l.Sell(q.Neg(), on, price)
	default:
		return fmt.Errorf("%w: zero quantity for %s", ErrInvalidQuantity, symbol)
	}
}

// SavePortfolios writes the portfolios of r to path, replacing it.
func SavePortfolios(path string, r *Registry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.csv")
	if err != nil {
		return fmt.Errorf("%w: cannot create portfolio file: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()
	if err := EncodePortfolios(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot write portfolio file %q: %w", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot write portfolio file %q: %w", ErrIO, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot replace portfolio file %q: %w", ErrIO, path, err)
	}
	return nil
}

// LoadPortfolios replays the portfolio file at path into r. A missing file
// is reported with an error matching ErrFileNotFound.
func LoadPortfolios(path string, r *Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open portfolio file: %w", err)
	}
	defer f.Close()
	if err := DecodePortfolios(f, r); err != nil {
		return fmt.Errorf("load error in %q: %w", path, err)
	}
	return nil
}
