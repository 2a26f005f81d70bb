package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches for symbols on EODHD" }
func (*searchCmd) Usage() string {
	return `stx search <search term>

  Searches for securities via EOD Historical Data API and prints
  ready-to-use 'stx buy' commands for the results.

  Requires the EODHD_API_KEY environment variable to be set or passed as a flag.
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	searchTerm := strings.Join(f.Args(), " ")

	src, err := newEODHD()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	results, err := src.Search(ctx, searchTerm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching securities: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(results) == 0 {
		fmt.Fprintf(stdout, "No results found for '%s'.\n", searchTerm)
		return subcommands.ExitSuccess
	}

	fmt.Fprintf(stdout, "Found %d results for '%s':\n\n", len(results), searchTerm)
	for _, item := range results {
		fmt.Fprintf(stdout, "➡️   Name       : %s (%s)\n", item.Name, item.Code)
		fmt.Fprintf(stdout, "    Type        : %s, Country: %s, Currency: %s\n", item.Type, item.Country, item.Currency)
		fmt.Fprintf(stdout, "    Prev. Close : %.2f on %s\n", item.PreviousClose, item.PreviousCloseDate)
		fmt.Fprintf(stdout, "    $ stx -source=eodhd buy -p <portfolio> -s %s -q <quantity>\n\n", item.Symbol())
	}
	return subcommands.ExitSuccess
}
