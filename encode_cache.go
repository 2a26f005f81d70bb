package stocks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// This file persists the price cache as a single CSV file:
//
//	Symbol,Date,Open,High,Low,Close,Volume
//
// one row per cached record, sorted by symbol then date so that the file is
// stable and diff friendly.

var cacheHeader = []string{"Symbol", "Date", "Open", "High", "Low", "Close", "Volume"}

// Encode writes every cached record to w.
func (c *Cache) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cacheHeader); err != nil {
		return err
	}
	for _, symbol := range c.Symbols() {
		for _, o := range c.Series(symbol) {
			if err := cw.Write(append([]string{symbol}, formatOHLCV(o)...)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads records written by Encode and merges them into the cache.
// Records already cached for the same (symbol, date) are replaced.
func (c *Cache) Decode(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(cacheHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read cache header: %w", err)
	}
	if !strings.EqualFold(strings.Join(header, ","), strings.Join(cacheHeader, ",")) {
		return fmt.Errorf("unexpected cache header %q", strings.Join(header, ","))
	}

	// group by symbol to restore in bulk.
	bySymbol := make(map[string][]OHLCV)
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("cannot read cache line %d: %w", line, err)
		}
		symbol := normalize(fields[0])
		if symbol == "" {
			return fmt.Errorf("parse error on cache line %d: missing symbol", line)
		}
		o, err := parseOHLCV(fields[1:])
		if err != nil {
			return fmt.Errorf("parse error on cache line %d: %w", line, err)
		}
		bySymbol[symbol] = append(bySymbol[symbol], o)
	}
	for symbol, series := range bySymbol {
		c.Restore(symbol, series...)
	}
	return nil
}

// Save writes the cache to path. The file is first written next to path then
// renamed over it.
func (c *Cache) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.csv")
	if err != nil {
		return fmt.Errorf("%w: cannot create cache file: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()
	if err := c.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot write cache file %q: %w", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot write cache file %q: %w", ErrIO, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: cannot replace cache file %q: %w", ErrIO, path, err)
	}
	log.Printf("saved %d prices to %s", c.Len(), path)
	return nil
}

// Load merges the cache file at path into the cache. A missing file is
// reported with an error matching ErrFileNotFound.
func (c *Cache) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open cache file: %w", err)
	}
	defer f.Close()
	if err := c.Decode(f); err != nil {
		return fmt.Errorf("load error in %q: %w", path, err)
	}
	return nil
}
