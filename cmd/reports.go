package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stocks/date"
	"github.com/etnz/stocks/renderer"
	"github.com/google/subcommands"
)

// reportFlags are the flags shared by portfolio reports.
type reportFlags struct {
	portfolio string
	date      string
}

func (r *reportFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.portfolio, "p", "", "Portfolio name")
	f.StringVar(&r.date, "d", "", "Date for the report, defaults to today. See the user manual for supported date formats.")
}

func (r *reportFlags) parse() (date.Date, subcommands.ExitStatus) {
	if r.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: the -p flag is required.")
		return date.Date{}, subcommands.ExitUsageError
	}
	on, err := parseDate(r.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return date.Date{}, subcommands.ExitUsageError
	}
	return on, subcommands.ExitSuccess
}

// valueCmd holds the flags for the 'value' subcommand.
type valueCmd struct{ reportFlags }

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "display the market value of a portfolio" }
func (*valueCmd) Usage() string {
	return `stx value -p <portfolio> [-d <date>]

  Displays the positions of a portfolio on a given date, valued at the last
  close on or before that date, with the net amount invested.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, status := c.parse()
	if status != subcommands.ExitSuccess {
		return status
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	report, err := renderer.NewHolding(ctx, s.registry, c.portfolio, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating holding report: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderHolding(report))
	return subcommands.ExitSuccess
}

type investedCmd struct{ reportFlags }

func (*investedCmd) Name() string     { return "invested" }
func (*investedCmd) Synopsis() string { return "display the net amount invested in a portfolio" }
func (*investedCmd) Usage() string {
	return `stx invested -p <portfolio> [-d <date>]

  Displays the cost of purchases minus the proceeds of sales strictly before
  a given date.
`
}

func (c *investedCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *investedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, status := c.parse()
	if status != subcommands.ExitSuccess {
		return status
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	p, err := s.registry.Get(c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderInvestment(&renderer.Investment{
		Name:     p.Name(),
		Date:     on,
		Invested: p.InvestmentAsOf(on),
	}))
	return subcommands.ExitSuccess
}

type compositionCmd struct{ reportFlags }

func (*compositionCmd) Name() string     { return "composition" }
func (*compositionCmd) Synopsis() string { return "display the quantities held in a portfolio" }
func (*compositionCmd) Usage() string {
	return `stx composition -p <portfolio> [-d <date>]

  Lists the symbols held on a given date with their quantity.
`
}

func (c *compositionCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *compositionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, status := c.parse()
	if status != subcommands.ExitSuccess {
		return status
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	p, err := s.registry.Get(c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderComposition(&renderer.Composition{
		Name:     p.Name(),
		Date:     on,
		Holdings: p.Composition(on),
	}))
	return subcommands.ExitSuccess
}

type logCmd struct {
	portfolio string
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the transactions of a portfolio" }
func (*logCmd) Usage() string {
	return `stx log -p <portfolio>

  Lists the buys and sells of a portfolio in chronological order.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio name")
}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: the -p flag is required.")
		return subcommands.ExitUsageError
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	p, err := s.registry.Get(c.portfolio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderLog(renderer.NewLog(p)))
	return subcommands.ExitSuccess
}

type chartCmd struct {
	start  string
	end    string
	period string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "chart the value of a symbol or a portfolio over time" }
func (*chartCmd) Usage() string {
	return `stx chart [-s <start> | -period <period>] [-d <end>] <symbol or portfolio>

  Draws the value of a portfolio, or the close of a symbol, between two dates.
  With -period (week, month, quarter or year), the chart covers the calendar
  period containing the end date, up to today.
  Portfolio names take precedence over symbols. The sampling is daily for
  ranges up to 30 days, every 10 days up to 150 days, monthly up to 540
  days, quarterly up to 5 years and yearly beyond. See 'stx topic indicators'.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "-1m", "Start date of the chart")
	f.StringVar(&c.end, "d", "", "End date of the chart, defaults to today")
	f.StringVar(&c.period, "period", "", "Chart the calendar period containing the end date instead of starting at -s")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a symbol or a portfolio name is required.")
		return subcommands.ExitUsageError
	}
	start, err := date.Parse(c.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
		return subcommands.ExitUsageError
	}
	end, err := parseDate(c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
		return subcommands.ExitUsageError
	}

	var label string
	if c.period != "" {
		period, err := date.ParsePeriod(c.period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
			return subcommands.ExitUsageError
		}
		r := period.Range(end)
		label = r.Identifier()
		if today := date.Today(); r.Contains(today) {
			r.To = today
		}
		start, end = r.From, r.To
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	id := s.registry.Resolve(strings.Join(f.Args(), " "))
	perf, err := s.registry.Performance(ctx, id, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing performance: %v\n", err)
		return subcommands.ExitFailure
	}
	chart := renderer.NewChart(perf)
	chart.Period = label
	printMarkdown(renderer.RenderChart(chart))
	return subcommands.ExitSuccess
}
