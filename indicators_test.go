package stocks

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/stocks/date"
	"github.com/google/go-cmp/cmp"
)

// everyDay returns one record per calendar day from start, with the given closes.
func everyDay(start date.Date, closes []float64) []OHLCV {
	s := make([]OHLCV, len(closes))
	for i, c := range closes {
		s[i] = bar(start.Add(i).String(), c, c)
	}
	return s
}

// shape builds closes made of consecutive linear segments, starting at 100.
// Each step is a number of days and a daily increment.
func shape(steps ...[2]float64) []float64 {
	closes := []float64{}
	price := 100.0
	for _, step := range steps {
		for range int(step[0]) {
			closes = append(closes, price)
			price += step[1]
		}
	}
	return closes
}

var indicatorStart = date.MustParse("2023-01-01")

func newTestIndicators() *Indicators {
	src := newFakeSource(map[string][]OHLCV{
		// flat 30 days at 100, then up to 140 and back down to 100.
		"PEAK": everyDay(indicatorStart, shape([2]float64{29, 0}, [2]float64{40, 1}, [2]float64{41, -1})),
		// flat 30 days at 100, then down to 80 and up again.
		"DIP": everyDay(indicatorStart, shape([2]float64{29, 0}, [2]float64{20, -1}, [2]float64{40, 1})),
		// trading days only.
		"AAPL": {bar("2024-02-02", 179.86, 185.85), bar("2024-02-05", 188.15, 187.68), bar("2024-02-06", 186.86, 189.30)},
	})
	in := NewIndicators(NewLookup(NewCache(CacheOptions{}), src))
	in.Today = fixedToday("2024-12-31")
	return in
}

func TestShape(t *testing.T) {
	closes := shape([2]float64{29, 0}, [2]float64{40, 1}, [2]float64{41, -1})
	if len(closes) != 110 || closes[29] != 100 || closes[30] != 101 || closes[69] != 140 || closes[109] != 100 {
		t.Fatalf("shape() = %v", closes)
	}
}

func TestMovingAverage(t *testing.T) {
	ctx := context.Background()
	in := newTestIndicators()
	day := indicatorStart.Add

	testCases := []struct {
		name   string
		symbol string
		end    date.Date
		window int
		want   Money
	}{
		{"flat", "PEAK", day(20), 10, M(100)},
		{"rising", "PEAK", day(34), 5, M(103)},         // 101..105
		{"half rising", "PEAK", day(34), 10, M(101.5)}, // 5 × 100 + 101..105
		{"before history", "PEAK", day(4), 10, M(100)},
		{"skips week ends", "AAPL", date.MustParse("2024-02-06"), 5, M(187.61)}, // (185.85 + 187.68 + 189.30) / 3
		{"no data", "AAPL", date.MustParse("2024-03-01"), 5, M(0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := in.MovingAverage(ctx, tc.symbol, tc.end, tc.window)
			if err != nil {
				t.Fatalf("MovingAverage() error = %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("MovingAverage() = %v, want %v", got, tc.want)
			}
		})
	}

	if _, err := in.MovingAverage(ctx, "PEAK", day(20), 0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("MovingAverage() error = %v, want ErrInvalidWindow", err)
	}
	if _, err := in.MovingAverage(ctx, "NOPE", day(20), 5); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("MovingAverage() error = %v, want ErrInvalidSymbol", err)
	}
}

func TestCrossoverDays(t *testing.T) {
	ctx := context.Background()
	in := newTestIndicators()
	day := indicatorStart.Add

	got, err := in.CrossoverDays(ctx, "DIP", day(0), day(88))
	if err != nil {
		t.Fatalf("CrossoverDays() error = %v", err)
	}
	// on day 58 the close (89) rises above its 30-day average (88.5).
	if diff := cmp.Diff([]date.Date{day(58)}, got, ohlcvCmp); diff != "" {
		t.Errorf("CrossoverDays() mismatch (-want +got):\n%s", diff)
	}

	got, err = in.CrossoverDays(ctx, "PEAK", day(0), day(109))
	if err != nil {
		t.Fatalf("CrossoverDays() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("CrossoverDays() = %v, want none when the close starts level with its average", got)
	}
}

func TestMovingCrossoverDays(t *testing.T) {
	ctx := context.Background()
	in := newTestIndicators()
	day := indicatorStart.Add

	got, err := in.MovingCrossoverDays(ctx, "PEAK", day(0), day(109), 5, 20)
	if err != nil {
		t.Fatalf("MovingCrossoverDays() error = %v", err)
	}
	want := &Crossovers{
		Golden: []date.Date{day(30)}, // first rise above the flat average
		Death:  []date.Date{day(77)}, // 8 days after the peak: 134 < 134.9
		All:    []date.Date{day(30), day(77)},
	}
	if diff := cmp.Diff(want, got, ohlcvCmp); diff != "" {
		t.Errorf("MovingCrossoverDays() mismatch (-want +got):\n%s", diff)
	}

	// starting inside the rise is seeded by the previous day, no golden cross.
	got, err = in.MovingCrossoverDays(ctx, "PEAK", day(40), day(109), 5, 20)
	if err != nil {
		t.Fatalf("MovingCrossoverDays() error = %v", err)
	}
	if len(got.Golden) != 0 || len(got.Death) != 1 {
		t.Errorf("MovingCrossoverDays() = %+v, want a single death cross", got)
	}
}

func TestIndicators_Errors(t *testing.T) {
	ctx := context.Background()
	in := newTestIndicators()
	day := indicatorStart.Add

	testCases := []struct {
		name        string
		short, long int
		start, end  date.Date
		wantErr     error
	}{
		{"short equals long", 20, 20, day(0), day(10), ErrInvalidWindow},
		{"short above long", 30, 20, day(0), day(10), ErrInvalidWindow},
		{"zero short", 0, 20, day(0), day(10), ErrInvalidWindow},
		{"reversed range", 5, 20, day(10), day(0), ErrInvalidDateRange},
		{"future range", 5, 20, day(0), date.MustParse("2025-01-02"), ErrInvalidDateRange},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := in.MovingCrossoverDays(ctx, "PEAK", tc.start, tc.end, tc.short, tc.long); !errors.Is(err, tc.wantErr) {
				t.Errorf("MovingCrossoverDays() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
	if _, err := in.CrossoverDays(ctx, "PEAK", day(10), day(10)); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("CrossoverDays() error = %v, want ErrInvalidDateRange", err)
	}
	if _, err := in.CrossoverDays(ctx, "NOPE", day(0), day(10)); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("CrossoverDays() error = %v, want ErrInvalidSymbol", err)
	}
}

func TestGainLoss(t *testing.T) {
	ctx := context.Background()
	in := newTestIndicators()

	testCases := []struct {
		day         string
		wantTrend   Trend
		wantChange  Money
		wantPercent string
	}{
		{"2024-02-02", Gained, M(5.99), "+3.33%"},
		{"2024-02-05", Lost, M(-0.47), "-0.25%"},
		{"2024-02-04", Unchanged, M(0), "-"},
	}
	for _, tc := range testCases {
		t.Run(tc.day, func(t *testing.T) {
			got, err := in.GainLoss(ctx, "aapl", date.MustParse(tc.day))
			if err != nil {
				t.Fatalf("GainLoss() error = %v", err)
			}
			if got.Trend != tc.wantTrend || !got.Change.Equal(tc.wantChange) {
				t.Errorf("GainLoss() = %v %v, want %v %v", got.Trend, got.Change, tc.wantTrend, tc.wantChange)
			}
			if got.Percent.SignedString() != tc.wantPercent {
				t.Errorf("Percent = %s, want %s", got.Percent.SignedString(), tc.wantPercent)
			}
			if got.Symbol != "AAPL" {
				t.Errorf("Symbol = %q, want AAPL", got.Symbol)
			}
		})
	}
	if _, err := in.GainLoss(ctx, "NOPE", date.MustParse("2024-02-05")); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("GainLoss() error = %v, want ErrInvalidSymbol", err)
	}
}
