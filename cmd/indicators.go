package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
	"github.com/etnz/stocks/renderer"
	"github.com/google/subcommands"
)

// rangeFlags are the flags of indicators computed over a date range.
type rangeFlags struct {
	start string
	end   string
}

func (r *rangeFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.start, "s", "-3m", "Start date of the analysis")
	f.StringVar(&r.end, "d", "", "End date of the analysis, defaults to today")
}

func (r *rangeFlags) parse() (start, end date.Date, err error) {
	if start, err = date.Parse(r.start); err != nil {
		return start, end, fmt.Errorf("start date: %w", err)
	}
	if end, err = parseDate(r.end); err != nil {
		return start, end, fmt.Errorf("end date: %w", err)
	}
	return start, end, nil
}

type maCmd struct {
	window int
	end    string
}

func (*maCmd) Name() string     { return "ma" }
func (*maCmd) Synopsis() string { return "display the moving average of a symbol" }
func (*maCmd) Usage() string {
	return `stx ma [-w <days>] [-d <date>] <symbol>

  Displays the mean close of a symbol over the window of calendar days
  ending on a date. Days without trading are not counted.
`
}

func (c *maCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.window, "w", 20, "Window, in calendar days")
	f.StringVar(&c.end, "d", "", "Last day of the window, defaults to today")
}

func (c *maCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	end, err := parseDate(c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	symbol := strings.ToUpper(f.Arg(0))
	value, err := stocks.NewIndicators(s.lookup).MovingAverage(ctx, symbol, end, c.window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing moving average: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderMovingAverage(&renderer.MovingAverage{Symbol: symbol, End: end, Window: c.window, Value: value}))
	return subcommands.ExitSuccess
}

type crossoverCmd struct{ rangeFlags }

func (*crossoverCmd) Name() string { return "crossover" }
func (*crossoverCmd) Synopsis() string {
	return fmt.Sprintf("list the days a symbol crossed above its %d-day average", stocks.CrossoverWindow)
}
func (*crossoverCmd) Usage() string {
	return fmt.Sprintf(`stx crossover [-s <start>] [-d <end>] <symbol>

  Lists the trading days where the close rose above its %d-day moving
  average, having closed below it the previous trading day.
`, stocks.CrossoverWindow)
}

func (c *crossoverCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *crossoverCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	start, end, err := c.parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	symbol := strings.ToUpper(f.Arg(0))
	days, err := stocks.NewIndicators(s.lookup).CrossoverDays(ctx, symbol, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing crossovers: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderCrossovers(renderer.NewCrossovers(symbol, start, end, days)))
	return subcommands.ExitSuccess
}

type mcrossCmd struct {
	rangeFlags
	short, long int
}

func (*mcrossCmd) Name() string     { return "mcross" }
func (*mcrossCmd) Synopsis() string { return "list golden and death crosses of two moving averages" }
func (*mcrossCmd) Usage() string {
	return `stx mcross [-short <days>] [-long <days>] [-s <start>] [-d <end>] <symbol>

  Lists the trading days where the short moving average crossed above the
  long one (golden cross) or below it (death cross).
`
}

func (c *mcrossCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.IntVar(&c.short, "short", 50, "Short window, in calendar days")
	f.IntVar(&c.long, "long", 200, "Long window, in calendar days")
}

func (c *mcrossCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	start, end, err := c.parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	symbol := strings.ToUpper(f.Arg(0))
	x, err := stocks.NewIndicators(s.lookup).MovingCrossoverDays(ctx, symbol, start, end, c.short, c.long)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing crossovers: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderCrossovers(renderer.NewMovingCrossovers(symbol, start, end, c.short, c.long, x)))
	return subcommands.ExitSuccess
}

type gainCmd struct {
	date string
}

func (*gainCmd) Name() string     { return "gain" }
func (*gainCmd) Synopsis() string { return "tell whether symbols gained or lost during a day" }
func (*gainCmd) Usage() string {
	return `stx gain [-d <date>] <symbol...>

  Compares the close of each symbol to its open on a given day.
`
}

func (c *gainCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Day to report on, defaults to today")
}

func (c *gainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	if err := s.lookup.Prefetch(ctx, f.Args()...); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}
	in := stocks.NewIndicators(s.lookup)
	var moves []stocks.DayMove
	for _, symbol := range f.Args() {
		move, err := in.GainLoss(ctx, symbol, on)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing gain of %s: %v\n", symbol, err)
			return subcommands.ExitFailure
		}
		moves = append(moves, move)
	}
	printMarkdown(renderer.RenderGainLoss(moves))
	return subcommands.ExitSuccess
}
