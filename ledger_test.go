package stocks

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/stocks/date"
)

func TestLedger_QuantityAsOf(t *testing.T) {
	l := NewLedger("aapl")
	mustBuy(t, l, 100, "2025-01-10", 150)
	mustSell(t, l, 25, "2025-02-03", 160)
	mustBuy(t, l, 10, "2025-02-10", 155)

	testCases := []struct {
		name string
		date string
		want float64
	}{
		{name: "Before any transactions", date: "2025-01-09", want: 0},
		{name: "On the day of the first buy", date: "2025-01-10", want: 100},
		{name: "On the day of the sell", date: "2025-02-03", want: 75},
		{name: "After sell, before second buy", date: "2025-02-07", want: 75},
		{name: "After all transactions", date: "2025-12-31", want: 85},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := l.QuantityAsOf(date.MustParse(tc.date))
			if !got.Equal(Q(tc.want)) {
				t.Errorf("QuantityAsOf(%s) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
	if l.Symbol() != "AAPL" {
		t.Errorf("Symbol() = %q, want AAPL", l.Symbol())
	}
	if !l.Quantity().Equal(Q(85)) {
		t.Errorf("Quantity() = %v, want 85", l.Quantity())
	}
}

func TestLedger_InvestmentAsOf(t *testing.T) {
	l := NewLedger("AAPL")
	mustBuy(t, l, 10, "2025-01-10", 150)
	mustSell(t, l, 4, "2025-02-03", 160)

	testCases := []struct {
		date string
		want Money
	}{
		{"2025-01-10", M(0)},    // strictly before
		{"2025-01-13", M(1500)}, // 10 × 150
		{"2025-02-04", M(860)},  // 1500 - 4 × 160
	}
	for _, tc := range testCases {
		t.Run(tc.date, func(t *testing.T) {
			if got := l.InvestmentAsOf(date.MustParse(tc.date)); !got.Equal(tc.want) {
				t.Errorf("InvestmentAsOf(%s) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestLedger_Sell(t *testing.T) {
	testCases := []struct {
		name     string
		quantity float64
		date     string
		wantErr  error
	}{
		{name: "full sale", quantity: 10, date: "2025-02-03"},
		{name: "more than held", quantity: 11, date: "2025-02-03", wantErr: ErrInsufficientQuantity},
		{name: "before the buy", quantity: 1, date: "2025-01-09", wantErr: ErrInsufficientQuantity},
		{name: "zero", quantity: 0, date: "2025-02-03", wantErr: ErrInvalidQuantity},
		{name: "negative", quantity: -1, date: "2025-02-03", wantErr: ErrInvalidQuantity},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger("AAPL")
			mustBuy(t, l, 10, "2025-01-10", 150)
			err := l.Sell(Q(tc.quantity), date.MustParse(tc.date), M(160))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Sell() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil && l.Len() != 1 {
				t.Errorf("a rejected sale was recorded")
			}
		})
	}
}

func TestLedger_BackDatedSell(t *testing.T) {
	l := NewLedger("AAPL")
	mustBuy(t, l, 10, "2025-01-10", 150)
	mustSell(t, l, 8, "2025-03-03", 170)

	// 10 are held in february but selling 5 would leave -3 in march.
	err := l.Sell(Q(5), date.MustParse("2025-02-03"), M(160))
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("Sell() error = %v, want ErrInsufficientQuantity", err)
	}
	if err := l.Sell(Q(2), date.MustParse("2025-02-03"), M(160)); err != nil {
		t.Errorf("Sell() error = %v", err)
	}
	if !l.Quantity().IsZero() {
		t.Errorf("Quantity() = %v, want 0", l.Quantity())
	}
	// replacing the buy by a smaller one would oversell later on.
	if err := l.Buy(Q(5), date.MustParse("2025-01-10"), M(150)); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("Buy() error = %v, want ErrInsufficientQuantity", err)
	}
}

func TestLedger_QuantityNeverNegative(t *testing.T) {
	l := NewLedger("AAPL")
	mustBuy(t, l, 3, "2025-01-06", 100)
	days := []string{"2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10"}
	for i, day := range days {
		err := l.Sell(Q(1), date.MustParse(day), M(100))
		if i < 3 && err != nil {
			t.Fatalf("Sell(%s) error = %v", day, err)
		}
		if i == 3 && !errors.Is(err, ErrInsufficientQuantity) {
			t.Fatalf("Sell(%s) error = %v, want ErrInsufficientQuantity", day, err)
		}
	}
	for on := range l.Transactions() {
		if l.QuantityAsOf(on).IsNegative() {
			t.Errorf("QuantityAsOf(%s) = %v", on, l.QuantityAsOf(on))
		}
	}
}

func TestLedger_ValueAsOf(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(map[string][]OHLCV{"AAPL": {bar("2024-02-02", 1, 185.85), bar("2024-02-05", 1, 187.68)}})
	prices := NewLookup(NewCache(CacheOptions{}), src)

	l := NewLedger("AAPL")
	mustBuy(t, l, 10, "2024-02-02", 185.85)

	got, err := l.ValueAsOf(ctx, prices, date.MustParse("2024-02-04"))
	if err != nil {
		t.Fatalf("ValueAsOf() error = %v", err)
	}
	if !got.Equal(M(1858.5)) {
		t.Errorf("ValueAsOf() = %v, want 1858.5", got)
	}

	empty := NewLedger("NOPE")
	if v, err := empty.ValueAsOf(ctx, prices, date.MustParse("2024-02-05")); err != nil || !v.IsZero() {
		t.Errorf("ValueAsOf() of an empty ledger = %v, %v", v, err)
	}
}

func mustBuy(t *testing.T, l *Ledger, quantity float64, day string, price float64) {
	t.Helper()
	if err := l.Buy(Q(quantity), date.MustParse(day), M(price)); err != nil {
		t.Fatalf("Buy(%v, %s) error = %v", quantity, day, err)
	}
}

func mustSell(t *testing.T, l *Ledger, quantity float64, day string, price float64) {
	t.Helper()
	if err := l.Sell(Q(quantity), date.MustParse(day), M(price)); err != nil {
		t.Fatalf("Sell(%v, %s) error = %v", quantity, day, err)
	}
}
