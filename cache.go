package stocks

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/etnz/stocks/date"
)

// CacheOptions bounds the memory used by a Cache. The zero value is an
// unbounded cache whose entries live as long as the process.
type CacheOptions struct {
	// MaxSymbols is the maximum number of symbols kept in memory. When
	// exceeded, the least recently used symbol is evicted. Zero means no limit.
	// Portfolio valuations and charts prefetch every symbol of a portfolio
	// only when they all fit; otherwise symbols are fetched one at a time as
	// the valuation reads them.
	MaxSymbols int
	// TTL is how long a symbol's prices are trusted after they were stored.
	// Expired symbols read as misses, which triggers a new backfill. Zero
	// means forever.
	TTL time.Duration
}

// Cache holds daily OHLCV records indexed by symbol then date.
//
// A Cache is safe for concurrent use.
type Cache struct {
	opts CacheOptions
	now  func() time.Time

	mu      sync.Mutex
	clock   uint64 // logical clock for LRU bookkeeping
	symbols map[string]*symbolPrices
}

type symbolPrices struct {
	prices     map[date.Date]OHLCV
	stored     time.Time // last write
	backfilled time.Time // last time the full series was stored, zero if never
	used       uint64
}

// NewCache returns an empty cache.
func NewCache(opts CacheOptions) *Cache {
	return &Cache{
		opts:    opts,
		now:     time.Now,
		symbols: make(map[string]*symbolPrices),
	}
}

func (c *Cache) expired(t time.Time) bool {
	return c.opts.TTL > 0 && c.now().Sub(t) > c.opts.TTL
}

// lookup returns the symbol entry if present and fresh. c.mu must be held.
func (c *Cache) lookup(symbol string) (*symbolPrices, bool) {
	sp, ok := c.symbols[symbol]
	if !ok || c.expired(sp.stored) {
		return nil, false
	}
	c.clock++
	sp.used = c.clock
	return sp, true
}

// entry returns the symbol entry, creating it if needed. c.mu must be held.
func (c *Cache) entry(symbol string) *symbolPrices {
	c.clock++
	sp, ok := c.symbols[symbol]
	if ok && c.expired(sp.stored) {
		// stale prices are dropped rather than merged with fresh ones.
		delete(c.symbols, symbol)
		ok = false
	}
	if !ok {
		sp = &symbolPrices{prices: make(map[date.Date]OHLCV)}
		c.symbols[symbol] = sp
		c.evict(symbol)
	}
	sp.used = c.clock
	sp.stored = c.now()
	return sp
}

// Fits reports whether n symbols can be held at once without eviction.
func (c *Cache) Fits(n int) bool { return c.opts.MaxSymbols <= 0 || n <= c.opts.MaxSymbols }

// evict drops least recently used symbols until the cache fits MaxSymbols.
// keep is never evicted.
func (c *Cache) evict(keep string) {
	for c.opts.MaxSymbols > 0 && len(c.symbols) > c.opts.MaxSymbols {
		var victim string
		var oldest uint64
		for s, sp := range c.symbols {
			if s == keep {
				continue
			}
			if victim == "" || sp.used < oldest {
				victim, oldest = s, sp.used
			}
		}
		if victim == "" {
			return
		}
		delete(c.symbols, victim)
	}
}

// Has reports whether a record exists for symbol on day.
func (c *Cache) Has(symbol string, day date.Date) bool {
	_, ok := c.Get(symbol, day)
	return ok
}

// Get returns the record for symbol on day.
func (c *Cache) Get(symbol string, day date.Date) (OHLCV, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sp, ok := c.lookup(symbol)
	if !ok {
		return OHLCV{}, false
	}
	o, ok := sp.prices[day]
	return o, ok
}

// Put stores a single record for symbol. An existing record on the same
// date is replaced.
func (c *Cache) Put(symbol string, o OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(symbol).prices[o.Date] = o
}

// Restore stores records for symbol, typically read back from a persisted
// file. Unlike PutAll it does not mark the symbol as backfilled. The symbol
// is normalized as Lookup does, so hand-edited files still hit.
func (c *Cache) Restore(symbol string, series ...OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sp := c.entry(normalize(symbol))
	for _, o := range series {
		sp.prices[o.Date] = o
	}
}

// PutAll stores the full available series for symbol and marks the symbol
// as backfilled.
func (c *Cache) PutAll(symbol string, series []OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sp := c.entry(symbol)
	for _, o := range series {
		sp.prices[o.Date] = o
	}
	sp.backfilled = sp.stored
}

// Backfilled reports whether the full series of symbol has been stored by
// PutAll and is still fresh.
func (c *Cache) Backfilled(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sp, ok := c.symbols[symbol]
	return ok && !sp.backfilled.IsZero() && !c.expired(sp.backfilled)
}

// Symbols returns the sorted list of cached symbols.
func (c *Cache) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.symbols))
}

// Series returns all records of symbol in chronological order.
func (c *Cache) Series(symbol string) []OHLCV {
	c.mu.Lock()
	defer c.mu.Unlock()
	sp, ok := c.symbols[symbol]
	if !ok {
		return nil
	}
	series := slices.Collect(maps.Values(sp.prices))
	slices.SortFunc(series, func(a, b OHLCV) int { return a.Date.Compare(b.Date) })
	return series
}

// Len returns the total number of records in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, sp := range c.symbols {
		n += len(sp.prices)
	}
	return n
}
