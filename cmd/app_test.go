package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
	"github.com/etnz/stocks/sqlitestore"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

func record(day string, close float64) stocks.OHLCV {
	c := decimal.NewFromFloat(close)
	return stocks.OHLCV{Date: date.MustParse(day), Open: c, High: c, Low: c, Close: c, Volume: 100}
}

var testSeries = map[string][]stocks.OHLCV{
	"AAPL":  {record("2024-02-05", 187.68), record("2024-02-06", 189.30), record("2024-02-07", 189.41)},
	"GOOGL": {record("2024-02-05", 144.61), record("2024-02-06", 145.41)},
}

// useTempFiles points the global flags to files in a temporary folder and
// replaces the price source with testSeries. It returns the printed output.
func useTempFiles(t *testing.T, cache string) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()

	oldCache, oldPortfolio, oldPlain, oldStdout, oldSource := *cacheFile, *portfolioFile, *plain, stdout, newSource
	t.Cleanup(func() {
		*cacheFile, *portfolioFile, *plain, stdout, newSource = oldCache, oldPortfolio, oldPlain, oldStdout, oldSource
	})

	*cacheFile = filepath.Join(dir, cache)
	*portfolioFile = filepath.Join(dir, "portfolios.csv")
	*plain = true
	out := new(bytes.Buffer)
	stdout = out
	newSource = func() (stocks.PriceSource, error) {
		return stocks.SeriesFunc(func(ctx context.Context, symbol string) ([]stocks.OHLCV, error) {
			s, ok := testSeries[symbol]
			if !ok {
				return nil, stocks.ErrInvalidSymbol
			}
			return s, nil
		}), nil
	}
	return out
}

// run parses args into a fresh flag set for c and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("cannot parse %q: %v", args, err)
	}
	return c.Execute(context.Background(), f)
}

func TestSetting(t *testing.T) {
	t.Setenv("STX_TEST_SETTING", "from-env")
	testCases := []struct {
		name  string
		value string
		env   string
		want  string
	}{
		{"flag wins", "from-flag", "STX_TEST_SETTING", "from-flag"},
		{"env", "", "STX_TEST_SETTING", "from-env"},
		{"default", "", "STX_TEST_UNSET", "default"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := setting(tc.value, tc.env, "default"); got != tc.want {
				t.Errorf("setting(%q, %q) = %q, want %q", tc.value, tc.env, got, tc.want)
			}
		})
	}
}

func TestIntAndDurationSettings(t *testing.T) {
	t.Setenv("STX_WORKERS", "8")
	t.Setenv("STX_CACHE_TTL", "36h")
	t.Setenv("STX_CACHE_MAX_SYMBOLS", "lots")

	if got, err := intSetting(0, "STX_WORKERS", 4); err != nil || got != 8 {
		t.Errorf("intSetting(0) = %d, %v, want 8", got, err)
	}
	if got, err := intSetting(2, "STX_WORKERS", 4); err != nil || got != 2 {
		t.Errorf("intSetting(2) = %d, %v, want 2", got, err)
	}
	if _, err := intSetting(0, "STX_CACHE_MAX_SYMBOLS", 0); err == nil {
		t.Error("intSetting() with an invalid value must fail")
	}
	if got, err := durationSetting(0, "STX_CACHE_TTL"); err != nil || got != 36*time.Hour {
		t.Errorf("durationSetting() = %v, %v, want 36h", got, err)
	}
}

func TestIsSQLite(t *testing.T) {
	for path, want := range map[string]bool{
		"prices.csv":     false,
		"prices":         false,
		"prices.db":      true,
		"data/p.SQLITE":  true,
		"prices.db.json": false,
	} {
		if got := isSQLite(path); got != want {
			t.Errorf("isSQLite(%q) = %v, want %v", path, got, want)
		}
	}
}

// trade runs the commands of a small trading session, failing on the first error.
func trade(t *testing.T) {
	t.Helper()
	steps := []struct {
		cmd  subcommands.Command
		args []string
	}{
		{&createCmd{}, []string{"Tech"}},
		{&tradeCmd{}, []string{"-p", "tech", "-s", "AAPL", "-q", "10", "-d", "2024-02-05"}},
		{&tradeCmd{}, []string{"-p", "Tech", "-s", "googl", "-q", "5", "-d", "2024-02-06"}},
		{&tradeCmd{sell: true}, []string{"-p", "Tech", "-s", "AAPL", "-q", "4", "-d", "2024-02-07"}},
	}
	for _, step := range steps {
		if got := run(t, step.cmd, step.args...); got != subcommands.ExitSuccess {
			t.Fatalf("%s %q = %v, want success", step.cmd.Name(), step.args, got)
		}
	}
}

func TestTradeCommands(t *testing.T) {
	out := useTempFiles(t, "prices.csv")
	trade(t)

	if !strings.Contains(out.String(), "Successfully recorded sell of 4 AAPL at $189.41 on 2024-02-07") {
		t.Errorf("unexpected output:\n%s", out)
	}

	got, err := os.ReadFile(*portfolioFile)
	if err != nil {
		t.Fatal(err)
	}
	want := `Portfolio Name,Stock Symbol,Quantity,Purchase Price,Purchase Date,Portfolio Type
Tech,AAPL,10,187.68,2024-02-05,flexible
Tech,AAPL,-4,189.41,2024-02-07,flexible
Tech,GOOGL,5,145.41,2024-02-06,flexible
`
	if string(got) != want {
		t.Errorf("portfolio file =\n%s\nwant\n%s", got, want)
	}

	c := stocks.NewCache(stocks.CacheOptions{})
	if err := c.Load(*cacheFile); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 5 {
		t.Errorf("cache file holds %d prices, want 5", c.Len())
	}
}

func TestTradeCommandErrors(t *testing.T) {
	useTempFiles(t, "prices.csv")
	trade(t)

	testCases := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{"missing flags", &tradeCmd{}, []string{"-p", "Tech"}, subcommands.ExitUsageError},
		{"bad quantity", &tradeCmd{}, []string{"-p", "Tech", "-s", "AAPL", "-q", "ten"}, subcommands.ExitUsageError},
		{"bad date", &tradeCmd{}, []string{"-p", "Tech", "-s", "AAPL", "-q", "1", "-d", "yesterday"}, subcommands.ExitUsageError},
		{"duplicate name", &createCmd{}, []string{"TECH"}, subcommands.ExitFailure},
		{"unknown portfolio", &tradeCmd{}, []string{"-p", "Bonds", "-s", "AAPL", "-q", "1", "-d", "2024-02-06"}, subcommands.ExitFailure},
		{"weekend", &tradeCmd{}, []string{"-p", "Tech", "-s", "AAPL", "-q", "1", "-d", "2024-02-04"}, subcommands.ExitFailure},
		{"same day", &tradeCmd{}, []string{"-p", "Tech", "-s", "AAPL", "-q", "1", "-d", "2024-02-05"}, subcommands.ExitFailure},
		{"oversell", &tradeCmd{sell: true}, []string{"-p", "Tech", "-s", "AAPL", "-q", "7", "-d", "2024-02-06"}, subcommands.ExitFailure},
		{"unknown symbol", &tradeCmd{}, []string{"-p", "Tech", "-s", "ZZZZ", "-q", "1", "-d", "2024-02-06"}, subcommands.ExitFailure},
		{"unknown chart period", &chartCmd{}, []string{"-period", "decade", "Tech"}, subcommands.ExitUsageError},
		{"single day chart", &chartCmd{}, []string{"-period", "day", "-d", "2024-02-07", "Tech"}, subcommands.ExitFailure},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(t, tc.cmd, tc.args...); got != tc.want {
				t.Errorf("%s %q = %v, want %v", tc.cmd.Name(), tc.args, got, tc.want)
			}
		})
	}
}

func TestReportCommands(t *testing.T) {
	out := useTempFiles(t, "prices.csv")
	trade(t)

	testCases := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want []string
	}{
		{"value", &valueCmd{}, []string{"-p", "Tech", "-d", "2024-02-07"}, []string{"| AAPL | 6 | $189.41 | $1,136.46 |", "**$1,863.51**"}},
		{"invested", &investedCmd{}, []string{"-p", "Tech", "-d", "2024-02-07"}, []string{"Net invested in Tech before 2024-02-07: **$2,603.85**"}},
		{"composition", &compositionCmd{}, []string{"-p", "Tech", "-d", "2024-02-05"}, []string{"| AAPL | 10 |", "# Tech composition on 2024-02-05"}},
		{"log", &logCmd{}, []string{"-p", "Tech"}, []string{"| 2024-02-07 | sell | AAPL | 4 | $189.41 | -$757.64 |"}},
		{"list", &listCmd{}, nil, []string{"Tech (flexible): AAPL, GOOGL"}},
		{"chart", &chartCmd{}, []string{"-s", "2024-02-05", "-d", "2024-02-07", "Tech"}, []string{"# Performance of portfolio Tech", "Sampled daily, return **-0.71%**."}},
		{"chart period", &chartCmd{}, []string{"-period", "week", "-d", "2024-02-07", "Tech"}, []string{"# Performance of portfolio Tech in 2024-W06", "Sampled daily"}},
		{"gain", &gainCmd{}, []string{"-d", "2024-02-06", "AAPL", "GOOGL"}, []string{"| AAPL | 2024-02-06 | unchanged | - |"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			if got := run(t, tc.cmd, tc.args...); got != subcommands.ExitSuccess {
				t.Fatalf("%s %q = %v, want success", tc.cmd.Name(), tc.args, got)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("%s output does not contain %q:\n%s", tc.cmd.Name(), want, out)
				}
			}
		})
	}
}

func TestRemoveCommand(t *testing.T) {
	useTempFiles(t, "prices.csv")
	trade(t)

	if got := run(t, &removeCmd{}, "tech"); got != subcommands.ExitSuccess {
		t.Fatalf("remove = %v, want success", got)
	}
	if got := run(t, &removeCmd{}, "tech"); got != subcommands.ExitFailure {
		t.Errorf("second remove = %v, want failure", got)
	}
	r := stocks.NewRegistry(stocks.NewLookup(stocks.NewCache(stocks.CacheOptions{}), nil))
	if err := stocks.LoadPortfolios(*portfolioFile, r); err != nil {
		t.Fatal(err)
	}
	if names := r.Names(); len(names) != 0 {
		t.Errorf("portfolios after remove = %q, want none", names)
	}
}

func TestFetchCommandWithSQLite(t *testing.T) {
	out := useTempFiles(t, "prices.db")
	if got := run(t, &createCmd{}, "Empty"); got != subcommands.ExitSuccess {
		t.Fatalf("create = %v", got)
	}

	if got := run(t, &fetchCmd{}, "AAPL", "GOOGL"); got != subcommands.ExitSuccess {
		t.Fatalf("fetch = %v, want success", got)
	}
	if !strings.Contains(out.String(), "Successfully fetched AAPL, GOOGL (5 prices cached)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if got := run(t, &fetchCmd{}, "AAPL", "NOPE"); got != subcommands.ExitFailure {
		t.Errorf("fetch of an unknown symbol = %v, want failure", got)
	}

	store, err := sqlitestore.Open(*cacheFile)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	counts, err := store.Symbols(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts["AAPL"] != 3 || counts["GOOGL"] != 2 {
		t.Errorf("stored counts = %v, want AAPL:3 GOOGL:2", counts)
	}
}
