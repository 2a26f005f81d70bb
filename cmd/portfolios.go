package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stocks"
	"github.com/google/subcommands"
)

type createCmd struct {
	kind string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create an empty portfolio" }
func (*createCmd) Usage() string {
	return `stx create [-k <kind>] <name>

  Creates an empty portfolio. Names are unique, regardless of case.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", stocks.DefaultKind, "Free form kind of portfolio, e.g. retirement or trading")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := strings.Join(f.Args(), " ")

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	if _, err := s.registry.Create(name, c.kind); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.savePortfolios(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolios: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Successfully created portfolio %q\n", strings.TrimSpace(name))
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list portfolios" }
func (*listCmd) Usage() string {
	return `stx list

  Lists the portfolios with their kind and the symbols they ever traded.
`
}

func (*listCmd) SetFlags(f *flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	for _, p := range s.registry.Portfolios() {
		fmt.Fprintf(stdout, "%s (%s): %s\n", p.Name(), p.Kind(), strings.Join(p.Symbols(), ", "))
	}
	return subcommands.ExitSuccess
}

type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "delete a portfolio and its transactions" }
func (*removeCmd) Usage() string {
	return `stx remove <name>

  Deletes a portfolio with all its transactions.
`
}

func (*removeCmd) SetFlags(f *flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio name is required.")
		return subcommands.ExitUsageError
	}
	name := strings.Join(f.Args(), " ")

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeSession(ctx, s)

	if err := s.registry.Remove(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.savePortfolios(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolios: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Successfully removed portfolio %q\n", name)
	return subcommands.ExitSuccess
}

// tradeCmd implements both the buy and the sell commands.
type tradeCmd struct {
	sell      bool
	portfolio string
	symbol    string
	quantity  string
	date      string
}

func (c *tradeCmd) Name() string {
	if c.sell {
		return "sell"
	}
	return "buy"
}

func (c *tradeCmd) Synopsis() string {
	if c.sell {
		return "sell shares held in a portfolio"
	}
	return "buy shares into a portfolio"
}

func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`stx %s -p <portfolio> -s <symbol> -q <quantity> [-d <date>]

  Records a %s of shares at the close price of the day. Weekend and future
  dates are rejected, and a symbol can only be traded once per day in a
  portfolio.
`, c.Name(), c.Name())
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio name")
	f.StringVar(&c.symbol, "s", "", "Stock symbol")
	f.StringVar(&c.quantity, "q", "", "Number of shares")
	f.StringVar(&c.date, "d", "", "Trade date, defaults to today. See the user manual for supported date formats.")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.symbol == "" || c.quantity == "" {
		fmt.Fprintln(os.Stderr, "Error: -p, -s and -q flags are required.")
		return subcommands.ExitUsageError
	}
	quantity, err := stocks.ParseQuantity(c.quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
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

	trade := s.registry.AddStock
	if c.sell {
		trade = s.registry.SellStock
	}
	if err := trade(ctx, c.portfolio, c.symbol, quantity, on); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", c.Name(), err)
		return subcommands.ExitFailure
	}
	if err := s.savePortfolios(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolios: %v\n", err)
		return subcommands.ExitFailure
	}

	price, _ := s.lookup.PriceOnDate(ctx, c.symbol, on)
	fmt.Fprintf(stdout, "Successfully recorded %s of %s %s at %s on %s\n", c.Name(), quantity, strings.ToUpper(c.symbol), price, on)
	return subcommands.ExitSuccess
}
