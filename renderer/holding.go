package renderer

import (
	"context"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
)

// Holding is the valuation of a portfolio on a day.
type Holding struct {
	Name       string
	Date       date.Date
	Positions  []Position
	TotalValue stocks.Money
	Invested   stocks.Money // net amount invested up to Date, included
}

// Position is the value of a symbol held in a portfolio.
type Position struct {
	Symbol   string
	Quantity stocks.Quantity
	Price    stocks.Money
	Value    stocks.Money
}

// Gain returns the market value minus the net investment.
func (h *Holding) Gain() stocks.Money { return h.TotalValue.Sub(h.Invested) }

// NewHolding values the named portfolio of r on day.
func NewHolding(ctx context.Context, r *stocks.Registry, name string, day date.Date) (*Holding, error) {
	total, err := r.ValueAsOf(ctx, name, day)
	if err != nil {
		return nil, err
	}
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	h := &Holding{
		Name:       p.Name(),
		Date:       day,
		TotalValue: total,
		Invested:   p.InvestmentAsOf(day.Add(1)),
	}
	for _, c := range p.Composition(day) {
		price, err := r.Prices().LastClosePrice(ctx, c.Symbol, day)
		if err != nil {
			return nil, err
		}
		h.Positions = append(h.Positions, Position{
			Symbol:   c.Symbol,
			Quantity: c.Quantity,
			Price:    price,
			Value:    price.Mul(c.Quantity),
		})
	}
	return h, nil
}

const holdingMarkdownTemplate = `# {{ .Name }} on {{ .Date }}

| Symbol | Quantity | Price | Market Value |
|:---|---:|---:|---:|
{{- range .Positions }}
| {{ .Symbol }} | {{ .Quantity }} | {{ .Price }} | {{ .Value }} |
{{- end }}
| **Total** | | | **{{ .TotalValue }}** |

Net Invested: **{{ .Invested }}**

Gain: **{{ .Gain.SignedString }}**
`

// RenderHolding renders the Holding struct to a markdown string.
func RenderHolding(h *Holding) string {
	return renderTemplate("holding", holdingMarkdownTemplate, h)
}

// Composition lists the quantities held in a portfolio on a day.
type Composition struct {
	Name     string
	Date     date.Date
	Holdings []stocks.Holding
}

const compositionMarkdownTemplate = `# {{ .Name }} composition on {{ .Date }}
{{ if .Holdings }}
| Symbol | Quantity |
|:---|---:|
{{- range .Holdings }}
| {{ .Symbol }} | {{ .Quantity }} |
{{- end }}
{{ else }}
No holdings.
{{ end -}}
`

// RenderComposition renders the Composition struct to a markdown string.
func RenderComposition(c *Composition) string {
	return renderTemplate("composition", compositionMarkdownTemplate, c)
}

// Investment is the net amount invested in a portfolio before a day.
type Investment struct {
	Name     string
	Date     date.Date
	Invested stocks.Money
}

const investmentMarkdownTemplate = `Net invested in {{ .Name }} before {{ .Date }}: **{{ .Invested }}**
`

// RenderInvestment renders the Investment struct to a markdown string.
func RenderInvestment(i *Investment) string {
	return renderTemplate("investment", investmentMarkdownTemplate, i)
}
