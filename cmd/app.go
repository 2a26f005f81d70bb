// Package cmd implements the CLI application to manage stock portfolios.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stocks"
	"github.com/etnz/stocks/alphavantage"
	"github.com/etnz/stocks/date"
	"github.com/etnz/stocks/eodhd"
	"github.com/etnz/stocks/sqlitestore"
	"github.com/google/subcommands"
)

// commands lists the subcommands by group.
var commands = []struct {
	group string
	cmd   subcommands.Command
}{
	{"portfolios", &createCmd{}},
	{"portfolios", &listCmd{}},
	{"portfolios", &removeCmd{}},
	{"portfolios", &tradeCmd{}},
	{"portfolios", &tradeCmd{sell: true}},

	{"reports", &valueCmd{}},
	{"reports", &investedCmd{}},
	{"reports", &compositionCmd{}},
	{"reports", &logCmd{}},
	{"reports", &chartCmd{}},

	{"indicators", &maCmd{}},
	{"indicators", &crossoverCmd{}},
	{"indicators", &mcrossCmd{}},
	{"indicators", &gainCmd{}},

	{"prices", &fetchCmd{}},
	{"prices", &searchCmd{}},

	{"help", &topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, e := range commands {
		c.Register(e.cmd, e.group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
//
// Flags left to their zero value fall back on an environment variable, then
// on a default. Environment variables are read when a command runs, so that
// a .env file loaded by the main package is taken into account.

var cacheFile = flag.String("cache-file", "", "Path to the price cache. Files ending in .db or .sqlite use an SQLite database, anything else a CSV file. Defaults to $STX_CACHE_FILE or prices.csv")
var portfolioFile = flag.String("portfolio-file", "", "Path to the portfolio CSV file. Defaults to $STX_PORTFOLIO_FILE or portfolios.csv")
var sourceName = flag.String("source", "", "Price source, alphavantage or eodhd. Defaults to $STX_SOURCE or alphavantage")
var alphavantageKey = flag.String("alphavantage-api-key", "", "Alpha Vantage API key. Takes precedence over $ALPHAVANTAGE_API_KEY. You can get one at https://www.alphavantage.co/")
var eodhdKey = flag.String("eodhd-api-key", "", "EODHD API key. Takes precedence over $EODHD_API_KEY. You can get one at https://eodhd.com/")
var workers = flag.Int("workers", 0, "Maximum number of concurrent fetches. Defaults to $STX_WORKERS or 4")
var maxSymbols = flag.Int("cache-max-symbols", 0, "Maximum number of symbols kept in memory, 0 for no limit. Defaults to $STX_CACHE_MAX_SYMBOLS")
var cacheTTL = flag.Duration("cache-ttl", 0, "How long cached prices are trusted, 0 for ever. Defaults to $STX_CACHE_TTL")
var httpCache = flag.String("http-cache", "", "Folder caching HTTP responses for the day. Defaults to $STX_HTTP_CACHE or the user cache folder")
var plain = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal")
var verbose = flag.Bool("v", false, "Log fetches and cache activity to stderr")

// stdout is where reports are printed.
var stdout io.Writer = os.Stdout

// ConfigureLogging applies the -v flag. Call it after flag.Parse().
func ConfigureLogging() {
	if *verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// setting returns value if set, then the environment variable env, then def.
func setting(value, env, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func intSetting(value int, env string, def int) (int, error) {
	if value != 0 {
		return value, nil
	}
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", env, v, err)
	}
	return n, nil
}

func durationSetting(value time.Duration, env string) (time.Duration, error) {
	if value != 0 {
		return value, nil
	}
	v := os.Getenv(env)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", env, v, err)
	}
	return d, nil
}

func httpCacheDir() string {
	if dir := setting(*httpCache, "STX_HTTP_CACHE", ""); dir != "" {
		return dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "stx")
}

// newSource returns the price source selected by -source.
var newSource = func() (stocks.PriceSource, error) {
	switch name := setting(*sourceName, "STX_SOURCE", "alphavantage"); name {
	case "alphavantage":
		key := setting(*alphavantageKey, "ALPHAVANTAGE_API_KEY", "")
		if key == "" {
			return nil, errors.New("Alpha Vantage API key is not set. Use -alphavantage-api-key flag or ALPHAVANTAGE_API_KEY environment variable")
		}
		return alphavantage.New(key, httpCacheDir()), nil
	case "eodhd":
		return newEODHD()
	default:
		return nil, fmt.Errorf("unknown price source %q, want alphavantage or eodhd", name)
	}
}

func newEODHD() (*eodhd.Source, error) {
	key := setting(*eodhdKey, "EODHD_API_KEY", "")
	if key == "" {
		return nil, errors.New("EODHD API key is not set. Use -eodhd-api-key flag or EODHD_API_KEY environment variable")
	}
	return eodhd.New(key, httpCacheDir()), nil
}

// session is the state loaded by a command: prices and portfolios.
type session struct {
	cacheFile     string
	portfolioFile string
	store         *sqlitestore.Store // nil when the cache is a CSV file

	cache    *stocks.Cache
	lookup   *stocks.Lookup
	registry *stocks.Registry
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite":
		return true
	}
	return false
}

// openSession loads the price cache and the portfolios. Missing files are
// not errors, the session starts empty instead.
func openSession(ctx context.Context) (*session, error) {
	size, err := intSetting(*maxSymbols, "STX_CACHE_MAX_SYMBOLS", 0)
	if err != nil {
		return nil, err
	}
	ttl, err := durationSetting(*cacheTTL, "STX_CACHE_TTL")
	if err != nil {
		return nil, err
	}
	n, err := intSetting(*workers, "STX_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	s := &session{
		cacheFile:     setting(*cacheFile, "STX_CACHE_FILE", "prices.csv"),
		portfolioFile: setting(*portfolioFile, "STX_PORTFOLIO_FILE", "portfolios.csv"),
		cache:         stocks.NewCache(stocks.CacheOptions{MaxSymbols: size, TTL: ttl}),
	}

	if isSQLite(s.cacheFile) {
		if s.store, err = sqlitestore.Open(s.cacheFile); err != nil {
			return nil, err
		}
		if err := s.store.Load(ctx, s.cache); err != nil {
			s.store.Close()
			return nil, err
		}
	} else {
		err := s.cache.Load(s.cacheFile)
		if errors.Is(err, stocks.ErrFileNotFound) {
			log.Println("warning, price cache does not exist, starting with an empty cache")
		} else if err != nil {
			return nil, err
		}
	}

	source, err := newSource()
	if err != nil {
		s.closeStore()
		return nil, err
	}
	s.lookup = stocks.NewLookup(s.cache, source)
	s.lookup.SetWorkers(n)
	s.registry = stocks.NewRegistry(s.lookup)

	err = stocks.LoadPortfolios(s.portfolioFile, s.registry)
	if errors.Is(err, stocks.ErrFileNotFound) {
		log.Println("warning, portfolio file does not exist, starting with no portfolio")
	} else if err != nil {
		s.closeStore()
		return nil, err
	}
	return s, nil
}

func (s *session) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("ignoring error closing %s: %v", s.cacheFile, err)
	}
}

// close saves the prices fetched during the session and releases the store.
func (s *session) close(ctx context.Context) error {
	defer s.closeStore()
	if s.store != nil {
		return s.store.Save(ctx, s.cache)
	}
	return s.cache.Save(s.cacheFile)
}

// savePortfolios writes the portfolios back to their file.
func (s *session) savePortfolios() error {
	return stocks.SavePortfolios(s.portfolioFile, s.registry)
}

// closeSession is close for commands that already have something to report:
// a failure to persist the cache is printed but does not fail the command.
func closeSession(ctx context.Context, s *session) {
	if err := s.close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving price cache: %v\n", err)
	}
}

// parseDate parses a date flag. An empty value means today.
func parseDate(value string) (date.Date, error) {
	if value == "" {
		return date.Today(), nil
	}
	return date.Parse(value)
}

// printMarkdown renders md for the terminal, or prints it raw with -plain.
func printMarkdown(md string) {
	if *plain {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		log.Printf("ignoring error rendering markdown: %v", err)
		out = md
	}
	fmt.Fprint(stdout, out)
}
