package renderer

import (
	"cmp"
	"slices"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
)

// Log is the chronological list of transactions of a portfolio.
type Log struct {
	Name string
	Kind string
	Rows []LogRow
}

// LogRow is a transaction of the log.
type LogRow struct {
	Date     date.Date
	Action   string
	Symbol   string
	Quantity stocks.Quantity
	Price    stocks.Money
	Amount   stocks.Money
}

// NewLog merges the ledgers of p by date, then symbol.
func NewLog(p *stocks.Portfolio) *Log {
	l := &Log{Name: p.Name(), Kind: p.Kind()}
	for _, ledger := range p.Ledgers() {
		for on, tx := range ledger.Transactions() {
			row := LogRow{
				Date:     on,
				Action:   "buy",
				Symbol:   ledger.Symbol(),
				Quantity: tx.Quantity.Abs(),
				Price:    tx.Price,
				Amount:   tx.Amount(),
			}
			if tx.IsSell() {
				row.Action = "sell"
			}
			l.Rows = append(l.Rows, row)
		}
	}
	slices.SortStableFunc(l.Rows, func(a, b LogRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return l
}

const logMarkdownTemplate = `# {{ .Name }} ({{ .Kind }})
{{ if .Rows }}
| Date | Action | Symbol | Quantity | Price | Amount |
|:---|:---|:---|---:|---:|---:|
{{- range .Rows }}
| {{ .Date }} | {{ .Action }} | {{ .Symbol }} | {{ .Quantity }} | {{ .Price }} | {{ .Amount.SignedString }} |
{{- end }}
{{ else }}
No transactions.
{{ end -}}
`

// RenderLog renders the Log struct to a markdown string.
func RenderLog(l *Log) string {
	return renderTemplate("log", logMarkdownTemplate, l)
}
