// Package sqlitestore persists a price cache in a SQLite database, as an
// alternative to the CSV cache file.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store is a SQLite database holding OHLCV records by symbol and date.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening db: %w", stocks.ErrIO, err)
	}

	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: setting WAL mode: %w", stocks.ErrIO, err)
	}

	// Run schema migration
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema migration: %w", stocks.ErrIO, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts every record of c in a single transaction.
func (s *Store) Save(ctx context.Context, c *stocks.Cache) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	defer stmt.Close()

	n := 0
	for _, symbol := range c.Symbols() {
		for _, o := range c.Series(symbol) {
			_, err := stmt.ExecContext(ctx, symbol, o.Date.String(),
				o.Open.String(), o.High.String(), o.Low.String(), o.Close.String(), o.Volume)
			if err != nil {
				return fmt.Errorf("%w: saving %s on %s: %w", stocks.ErrIO, symbol, o.Date, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	log.Printf("saved %d prices to sqlite", n)
	return nil
}

// Load merges every stored record into c. Records are restored, not
// backfilled: symbols still get fetched once on a miss.
func (s *Store) Load(ctx context.Context, c *stocks.Cache) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM prices ORDER BY symbol, date`)
	if err != nil {
		return fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	defer rows.Close()

	bySymbol := make(map[string][]stocks.OHLCV)
	for rows.Next() {
		var symbol, day string
		var prices [4]string
		var o stocks.OHLCV
		if err := rows.Scan(&symbol, &day, &prices[0], &prices[1], &prices[2], &prices[3], &o.Volume); err != nil {
			return fmt.Errorf("%w: %w", stocks.ErrIO, err)
		}
		if o.Date, err = date.Parse(day); err != nil {
			return fmt.Errorf("invalid %s record: %w", symbol, err)
		}
		for i, dst := range []*decimal.Decimal{&o.Open, &o.High, &o.Low, &o.Close} {
			if *dst, err = decimal.NewFromString(prices[i]); err != nil {
				return fmt.Errorf("invalid %s record on %s: %w", symbol, day, err)
			}
		}
		bySymbol[symbol] = append(bySymbol[symbol], o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	for symbol, series := range bySymbol {
		c.Restore(symbol, series...)
	}
	return nil
}

// Symbols returns the number of records stored per symbol.
func (s *Store) Symbols(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, COUNT(*) FROM prices GROUP BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", stocks.ErrIO, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var symbol string
		var n int
		if err := rows.Scan(&symbol, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", stocks.ErrIO, err)
		}
		counts[symbol] = n
	}
	return counts, rows.Err()
}
