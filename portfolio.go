package stocks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/stocks/date"
)

// DefaultKind is the kind given to portfolios created without one.
const DefaultKind = "flexible"

// Portfolio is a named collection of ledgers, one per symbol.
type Portfolio struct {
	name    string
	kind    string
	ledgers []*Ledger
}

// Name returns the portfolio name as it was created.
func (p *Portfolio) Name() string { return p.name }

// Kind returns the portfolio kind, persisted along with its transactions.
func (p *Portfolio) Kind() string { return p.kind }

// Ledgers returns the ledgers of the portfolio in the order symbols were
// first traded.
func (p *Portfolio) Ledgers() []*Ledger { return slices.Clone(p.ledgers) }

// Symbols returns the symbols of the portfolio in the order they were first traded.
func (p *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.ledgers))
	for _, l := range p.ledgers {
		symbols = append(symbols, l.Symbol())
	}
	return symbols
}

// Ledger returns the ledger of symbol, or nil if it was never traded.
func (p *Portfolio) Ledger(symbol string) *Ledger {
	symbol = normalize(symbol)
	for _, l := range p.ledgers {
		if l.Symbol() == symbol {
			return l
		}
	}
	return nil
}

// ledger returns the ledger of symbol, creating it if needed.
func (p *Portfolio) ledger(symbol string) *Ledger {
	if l := p.Ledger(symbol); l != nil {
		return l
	}
	l := NewLedger(symbol)
	p.ledgers = append(p.ledgers, l)
	return l
}

// InvestmentAsOf returns the net amount invested in the portfolio strictly before day.
func (p *Portfolio) InvestmentAsOf(day date.Date) Money {
	var m Money
	for _, l := range p.ledgers {
		m = m.Add(l.InvestmentAsOf(day))
	}
	return m
}

// ValueAsOf returns the market value of the portfolio on day.
func (p *Portfolio) ValueAsOf(ctx context.Context, prices *Lookup, day date.Date) (Money, error) {
	if err := prices.warm(ctx, p.Symbols()...); err != nil {
		return Money{}, err
	}
	var m Money
	for _, l := range p.ledgers {
		v, err := l.ValueAsOf(ctx, prices, day)
		if err != nil {
			return Money{}, err
		}
		m = m.Add(v)
	}
	return m, nil
}

// Holding is the quantity of a symbol held on a date.
type Holding struct {
	Symbol   string
	Quantity Quantity
}

// Composition returns the non-zero holdings of the portfolio on day.
func (p *Portfolio) Composition(day date.Date) []Holding {
	var holdings []Holding
	for _, l := range p.ledgers {
		if q := l.QuantityAsOf(day); !q.IsZero() {
			holdings = append(holdings, Holding{Symbol: l.Symbol(), Quantity: q})
		}
	}
	return holdings
}

// Registry holds the portfolios of a user and validates every change made
// to them.
type Registry struct {
	prices     *Lookup
	portfolios []*Portfolio

	// Today returns the current date. Dates after it are rejected.
	Today func() date.Date
}

// NewRegistry returns an empty registry pricing transactions with prices.
func NewRegistry(prices *Lookup) *Registry {
	return &Registry{prices: prices, Today: date.Today}
}

// Prices returns the lookup used to price transactions and valuations.
func (r *Registry) Prices() *Lookup { return r.prices }

// Portfolios returns the portfolios in creation order.
func (r *Registry) Portfolios() []*Portfolio { return slices.Clone(r.portfolios) }

// Names returns the portfolio names in creation order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.portfolios))
	for _, p := range r.portfolios {
		names = append(names, p.name)
	}
	return names
}

func (r *Registry) index(name string) int {
	name = strings.TrimSpace(name)
	return slices.IndexFunc(r.portfolios, func(p *Portfolio) bool { return strings.EqualFold(p.name, name) })
}

// Get returns the portfolio with that name, compared case-insensitively.
func (r *Registry) Get(name string) (*Portfolio, error) {
	i := r.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPortfolioNotFound, name)
	}
	return r.portfolios[i], nil
}

// Create adds an empty portfolio. An empty kind means DefaultKind.
func (r *Registry) Create(name, kind string) (*Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if r.index(name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if kind = strings.TrimSpace(kind); kind == "" {
		kind = DefaultKind
	}
	p := &Portfolio{name: name, kind: kind}
	r.portfolios = append(r.portfolios, p)
	return p, nil
}

// Remove deletes the portfolio with that name.
func (r *Registry) Remove(name string) error {
	i := r.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrPortfolioNotFound, name)
	}
	r.portfolios = slices.Delete(r.portfolios, i, i+1)
	return nil
}

// checkTrade runs the validations common to AddStock and SellStock, in order.
func (r *Registry) checkTrade(name, symbol string, quantity Quantity, day date.Date) (*Portfolio, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity)
	}
	if day.After(r.Today()) {
		return nil, fmt.Errorf("%w: %s", ErrFutureDate, day)
	}
	if day.IsWeekend() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWeekendDate, day, day.Weekday())
	}
	if l := p.Ledger(symbol); l != nil && l.Has(day) {
		return nil, fmt.Errorf("%w: %s already traded on %s in %q", ErrDuplicateTransaction, normalize(symbol), day, p.name)
	}
	return p, nil
}

// AddStock buys quantity shares of symbol on day, at that day's close.
func (r *Registry) AddStock(ctx context.Context, name, symbol string, quantity Quantity, day date.Date) error {
	p, err := r.checkTrade(name, symbol, quantity, day)
	if err != nil {
		return err
	}
	if err := r.prices.Validate(ctx, symbol); err != nil {
		return err
	}
	price, err := r.prices.PriceOnDate(ctx, symbol, day)
	if err != nil {
		return err
	}
	return p.ledger(symbol).Buy(quantity, day, price)
}

// SellStock sells quantity shares of symbol on day, at that day's close.
func (r *Registry) SellStock(ctx context.Context, name, symbol string, quantity Quantity, day date.Date) error {
	p, err := r.checkTrade(name, symbol, quantity, day)
	if err != nil {
		return err
	}
	l := p.Ledger(symbol)
	if l == nil {
		return fmt.Errorf("%w: %q holds no %s", ErrInsufficientQuantity, p.name, normalize(symbol))
	}
	price, err := r.prices.PriceOnDate(ctx, symbol, day)
	if err != nil {
		return err
	}
	return l.Sell(quantity, day, price)
}

// ValueAsOf returns the market value of the named portfolio on day.
func (r *Registry) ValueAsOf(ctx context.Context, name string, day date.Date) (Money, error) {
	p, err := r.Get(name)
	if err != nil {
		return Money{}, err
	}
	if day.After(r.Today()) {
		return Money{}, fmt.Errorf("%w: %s", ErrFutureDate, day)
	}
	return p.ValueAsOf(ctx, r.prices, day)
}

// InvestmentAsOf returns the net amount invested in the named portfolio strictly before day.
func (r *Registry) InvestmentAsOf(name string, day date.Date) (Money, error) {
	p, err := r.Get(name)
	if err != nil {
		return Money{}, err
	}
	return p.InvestmentAsOf(day), nil
}

// Composition returns the holdings of the named portfolio on day.
func (r *Registry) Composition(name string, day date.Date) ([]Holding, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Composition(day), nil
}
