package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"
)

type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetches daily prices into the price cache" }
func (*fetchCmd) Usage() string {
	return `stx fetch [symbol...]

Fetches the full daily price history of the symbols from the price source
and stores it in the price cache. Without arguments, every symbol traded in
a portfolio is fetched.

Symbols already fetched are skipped, unless -cache-ttl expired them. Up to
-workers symbols are fetched concurrently.
`
}

func (*fetchCmd) SetFlags(f *flag.FlagSet) {}

func (*fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	symbols := f.Args()
	if len(symbols) == 0 {
		for _, p := range s.registry.Portfolios() {
			symbols = append(symbols, p.Symbols()...)
		}
		slices.Sort(symbols)
		symbols = slices.Compact(symbols)
	}

	fetchErr := s.lookup.Prefetch(ctx, symbols...)
	// prices fetched before a failure are kept
	if err := s.close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving price cache: %v\n", err)
		return subcommands.ExitFailure
	}
	if fetchErr != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", fetchErr)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Successfully fetched %s (%d prices cached)\n", strings.Join(symbols, ", "), s.cache.Len())
	return subcommands.ExitSuccess
}
