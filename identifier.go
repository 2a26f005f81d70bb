package stocks

import "strings"

// IdentifierKind tells what an Identifier names.
type IdentifierKind int

const (
	// SymbolKind identifies a single traded symbol.
	SymbolKind IdentifierKind = iota
	// PortfolioKind identifies a portfolio of the registry.
	PortfolioKind
)

func (k IdentifierKind) String() string {
	switch k {
	case SymbolKind:
		return "symbol"
	case PortfolioKind:
		return "portfolio"
	default:
		return "unknown"
	}
}

// Identifier is either a stock symbol or a portfolio name. Operations that
// accept both (charts for instance) take an Identifier rather than a plain
// string.
type Identifier struct {
	Kind IdentifierKind
	Name string
}

// Symbol returns the Identifier of a stock symbol.
func Symbol(symbol string) Identifier { return Identifier{Kind: SymbolKind, Name: normalize(symbol)} }

// PortfolioName returns the Identifier of a portfolio.
func PortfolioName(name string) Identifier {
	return Identifier{Kind: PortfolioKind, Name: strings.TrimSpace(name)}
}

func (id Identifier) String() string { return id.Name }

// Resolve maps a user supplied name to an Identifier: registered portfolio
// names win over symbols.
func (r *Registry) Resolve(name string) Identifier {
	if p, err := r.Get(name); err == nil {
		return PortfolioName(p.Name())
	}
	return Symbol(name)
}
