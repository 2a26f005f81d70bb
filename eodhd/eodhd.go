// Package eodhd reads daily price series from EOD Historical Data.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Source fetches end of day prices from EODHD.
type Source struct {
	APIKey string
	// Exchange is appended to symbols without one, "US" if empty.
	Exchange string
	BaseURL  string       // defaults to DefaultBaseURL
	Client   *http.Client // defaults to http.DefaultClient
}

// New returns a Source whose responses are cached in cacheDir for the day.
func New(apiKey, cacheDir string) *Source {
	return &Source{APIKey: apiKey, Client: stocks.NewCachingClient(cacheDir, nil)}
}

func (s *Source) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *Source) base() string {
	if s.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(s.BaseURL, "/")
}

// ticker returns the EODHD ticker, typically "SYMBOL.EXCHANGECODE".
func (s *Source) ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	exchange := s.Exchange
	if exchange == "" {
		exchange = "US"
	}
	return symbol + "." + exchange
}

// FetchSeries implements stocks.PriceSource.
func (s *Source) FetchSeries(ctx context.Context, symbol string) ([]stocks.OHLCV, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s", s.base(), url.PathEscape(s.ticker(symbol)), url.QueryEscape(s.APIKey))
	type Info struct {
		Date   string          `json:"date"`
		Open   decimal.Decimal `json:"open"`
		High   decimal.Decimal `json:"high"`
		Low    decimal.Decimal `json:"low"`
		Close  decimal.Decimal `json:"close"`
		Volume decimal.Decimal `json:"volume"`
	}

	// that's the payload
	content := make([]Info, 0)
	if err := jwget(ctx, s.client(), addr, &content); err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", symbol, err)
	}

	series := make([]stocks.OHLCV, 0, len(content))
	for _, info := range content {
		on, err := date.Parse(info.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid %s record: %w", symbol, err)
		}
		if info.Close.IsNegative() {
			return nil, fmt.Errorf("invalid %s record on %s: negative close %s", symbol, on, info.Close)
		}
		series = append(series, stocks.OHLCV{
			Date:   on,
			Open:   info.Open,
			High:   info.High,
			Low:    info.Low,
			Close:  info.Close,
			Volume: info.Volume.IntPart(),
		})
	}
	return series, nil
}
