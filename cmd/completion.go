package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/stocks/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion tree of the application, built
// from the global flags and the flags of every subcommand.
func Completion() *complete.Command {
	root := &complete.Command{
		Flags: flagPredictors(flag.CommandLine),
		Sub:   make(map[string]*complete.Command, len(commands)),
	}
	for _, e := range commands {
		f := flag.NewFlagSet(e.cmd.Name(), flag.ContinueOnError)
		e.cmd.SetFlags(f)
		root.Sub[e.cmd.Name()] = &complete.Command{Flags: flagPredictors(f)}
	}
	if topics, err := docs.All(); err == nil {
		root.Sub["topic"].Args = predict.Set(topics)
	}
	return root
}

func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[fl.Name] = predict.Nothing
			return
		}
		switch {
		case fl.Name == "source":
			flags[fl.Name] = predict.Set{"alphavantage", "eodhd"}
		case strings.HasSuffix(fl.Name, "-file"):
			flags[fl.Name] = predict.Files("*")
		case fl.Name == "http-cache":
			flags[fl.Name] = predict.Dirs("*")
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}
