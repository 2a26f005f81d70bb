package stocks

import "context"

// PriceSource provides the full available daily history of a symbol.
//
// Implementations return an error matching ErrInvalidSymbol when the
// provider does not know the symbol.
type PriceSource interface {
	FetchSeries(ctx context.Context, symbol string) ([]OHLCV, error)
}

// SeriesFunc adapts a function to the PriceSource interface.
type SeriesFunc func(ctx context.Context, symbol string) ([]OHLCV, error)

// FetchSeries calls f(ctx, symbol).
func (f SeriesFunc) FetchSeries(ctx context.Context, symbol string) ([]OHLCV, error) {
	return f(ctx, symbol)
}
