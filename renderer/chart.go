package renderer

import (
	"math"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
)

// maxStars is the width of the longest bar of a chart.
const maxStars = 50

// Chart is a performance series drawn as horizontal bars of asterisks.
type Chart struct {
	Title      string
	Period     string // calendar period charted, if any
	Resolution string
	Return     stocks.Percent
	Bars       []Bar
}

// Bar is a single row of a Chart.
type Bar struct {
	Date  date.Date
	Value stocks.Money
	Stars int
}

// NewChart scales the points of p so that the highest value gets maxStars.
// Zero and negative values get no star.
func NewChart(p *stocks.Performance) *Chart {
	c := &Chart{
		Title:      p.ID.Kind.String() + " " + p.ID.Name,
		Resolution: p.Resolution.String(),
		Return:     p.Return(),
	}
	var high float64
	for _, pt := range p.Points {
		high = math.Max(high, pt.Value.Float())
	}
	for _, pt := range p.Points {
		b := Bar{Date: pt.Date, Value: pt.Value}
		if v := pt.Value.Float(); high > 0 && v > 0 {
			b.Stars = int(math.Round(v / high * maxStars))
		}
		c.Bars = append(c.Bars, b)
	}
	return c
}

const chartMarkdownTemplate = "# Performance of {{ .Title }}{{ with .Period }} in {{ . }}{{ end }}\n\n" +
	"Sampled {{ .Resolution }}, return **{{ .Return.SignedString }}**.\n\n" +
	"```text\n" +
	"{{ range .Bars }}{{ .Date }} {{ printf \"%14s\" .Value.String }} {{ stars .Stars }}\n{{ end }}" +
	"```\n"

// RenderChart renders the Chart struct to a markdown string.
func RenderChart(c *Chart) string {
	return renderTemplate("chart", chartMarkdownTemplate, c)
}
