package renderer

import (
	"fmt"
	"slices"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
)

// MovingAverage is the mean close of a symbol over a window.
type MovingAverage struct {
	Symbol string
	End    date.Date
	Window int
	Value  stocks.Money
}

const movingAverageMarkdownTemplate = `{{ .Window }}-day moving average of {{ .Symbol }} on {{ .End }}: **{{ .Value }}**
`

// RenderMovingAverage renders the MovingAverage struct to a markdown string.
func RenderMovingAverage(m *MovingAverage) string {
	return renderTemplate("movingAverage", movingAverageMarkdownTemplate, m)
}

// Crossovers lists the days a symbol crossed a moving average.
type Crossovers struct {
	Title      string
	Start, End date.Date
	Rows       []Crossover
}

// Crossover is a single crossing.
type Crossover struct {
	Date date.Date
	Kind string
}

// NewCrossovers reports the days the close of symbol rose above its
// stocks.CrossoverWindow-day moving average.
func NewCrossovers(symbol string, start, end date.Date, days []date.Date) *Crossovers {
	c := &Crossovers{
		Title: fmt.Sprintf("%s crossing above its %d-day average", symbol, stocks.CrossoverWindow),
		Start: start,
		End:   end,
	}
	for _, d := range days {
		c.Rows = append(c.Rows, Crossover{Date: d, Kind: "above"})
	}
	return c
}

// NewMovingCrossovers reports the golden and death crosses of a short and a
// long moving average.
func NewMovingCrossovers(symbol string, start, end date.Date, short, long int, x *stocks.Crossovers) *Crossovers {
	c := &Crossovers{
		Title: fmt.Sprintf("%s %d-day and %d-day average crossovers", symbol, short, long),
		Start: start,
		End:   end,
	}
	for _, d := range x.All {
		kind := "death"
		if slices.Contains(x.Golden, d) {
			kind = "golden"
		}
		c.Rows = append(c.Rows, Crossover{Date: d, Kind: kind})
	}
	return c
}

const crossoversMarkdownTemplate = `# {{ .Title }}

From {{ .Start }} to {{ .End }}.
{{ if .Rows }}
| Date | Cross |
|:---|:---|
{{- range .Rows }}
| {{ .Date }} | {{ .Kind }} |
{{- end }}
{{ else }}
No crossover.
{{ end -}}
`

// RenderCrossovers renders the Crossovers struct to a markdown string.
func RenderCrossovers(c *Crossovers) string {
	return renderTemplate("crossovers", crossoversMarkdownTemplate, c)
}

const gainLossMarkdownTemplate = `| Symbol | Date | Trend | Change | % |
|:---|:---|:---|---:|---:|
{{- range . }}
| {{ .Symbol }} | {{ .Date }} | {{ .Trend }} | {{ .Change.SignedString }} | {{ .Percent.SignedString }} |
{{- end }}
`

// RenderGainLoss renders day moves to a markdown table.
func RenderGainLoss(moves []stocks.DayMove) string {
	return renderTemplate("gainLoss", gainLossMarkdownTemplate, moves)
}
