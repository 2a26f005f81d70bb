package stocks

import (
	"context"
	"fmt"
	"iter"

	"github.com/etnz/stocks/date"
)

// Transaction is a dated signed quantity of shares exchanged at a unit price.
// Buys have a positive quantity, sells a negative one.
type Transaction struct {
	Date     date.Date
	Quantity Quantity
	Price    Money
}

// IsSell reports whether t removes shares from the ledger.
func (t Transaction) IsSell() bool { return t.Quantity.IsNegative() }

// Amount returns the signed amount of money exchanged: Price × Quantity.
func (t Transaction) Amount() Money { return t.Price.Mul(t.Quantity) }

// Ledger is the activity log of a single symbol.
//
// The log holds at most one transaction per date: recording a transaction
// on a date that already has one replaces it. Bulk loads relying on several
// trades per day must aggregate them first.
type Ledger struct {
	symbol   string
	activity date.History[Transaction]
}

// NewLedger creates an empty ledger for symbol.
func NewLedger(symbol string) *Ledger {
	return &Ledger{symbol: normalize(symbol)}
}

// Symbol returns the symbol traded in this ledger.
func (l *Ledger) Symbol() string { return l.symbol }

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int { return l.activity.Len() }

// Has reports whether a transaction is recorded on day.
func (l *Ledger) Has(day date.Date) bool {
	_, ok := l.activity.Get(day)
	return ok
}

// Transactions iterates over the ledger in chronological order.
func (l *Ledger) Transactions() iter.Seq2[date.Date, Transaction] { return l.activity.Values() }

// lowestHolding returns the lowest quantity held on day or any later date if
// the transaction on day is replaced by a transaction of quantity q.
func (l *Ledger) lowestHolding(day date.Date, q Quantity) Quantity {
	var held Quantity
	for on, tx := range l.activity.Values() {
		if !on.Before(day) {
			break
		}
		held = held.Add(tx.Quantity)
	}
	held = held.Add(q)
	low := held
	for _, tx := range l.activity.Since(day.Add(1)) {
		held = held.Add(tx.Quantity)
		if held.LessThan(low) {
			low = held
		}
	}
	return low
}

// record replaces the transaction on day after checking that holdings stay
// non-negative at every date.
func (l *Ledger) record(tx Transaction) error {
	if low := l.lowestHolding(tx.Date, tx.Quantity); low.IsNegative() {
		return fmt.Errorf("%w: %s on %s would leave %s shares of %s", ErrInsufficientQuantity,
			tx.Quantity.Abs(), tx.Date, low, l.symbol)
	}
	l.activity.Append(tx.Date, tx)
	return nil
}

// Buy records the purchase of quantity shares on day at price.
func (l *Ledger) Buy(quantity Quantity, day date.Date, price Money) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: cannot buy %s shares of %s", ErrInvalidQuantity, quantity, l.symbol)
	}
	return l.record(Transaction{Date: day, Quantity: quantity, Price: price})
}

// Sell records the sale of quantity shares on day at price.
//
// The sale is checked against the quantity held on day and on every later
// date, so that back-dated sales cannot oversell a position.
func (l *Ledger) Sell(quantity Quantity, day date.Date, price Money) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: cannot sell %s shares of %s", ErrInvalidQuantity, quantity, l.symbol)
	}
	return l.record(Transaction{Date: day, Quantity: quantity.Neg(), Price: price})
}

// Quantity returns the quantity currently held, all transactions included.
func (l *Ledger) Quantity() Quantity {
	var q Quantity
	for _, tx := range l.activity.Values() {
		q = q.Add(tx.Quantity)
	}
	return q
}

// QuantityAsOf returns the quantity held at the end of day.
func (l *Ledger) QuantityAsOf(day date.Date) Quantity {
	var q Quantity
	for on, tx := range l.activity.Values() {
		if on.After(day) {
			break
		}
		q = q.Add(tx.Quantity)
	}
	return q
}

// InvestmentAsOf returns the net amount invested by transactions strictly
// before day. Sales reduce the investment by their proceeds.
func (l *Ledger) InvestmentAsOf(day date.Date) Money {
	var m Money
	for on, tx := range l.activity.Values() {
		if !on.Before(day) {
			break
		}
		m = m.Add(tx.Amount())
	}
	return m
}

// ValueAsOf returns the market value of the position held on day, priced at
// the last close available on or shortly before day.
func (l *Ledger) ValueAsOf(ctx context.Context, prices *Lookup, day date.Date) (Money, error) {
	q := l.QuantityAsOf(day)
	if q.IsZero() {
		return Money{}, nil
	}
	price, err := prices.LastClosePrice(ctx, l.symbol, day)
	if err != nil {
		return Money{}, err
	}
	return price.Mul(q), nil
}
