// Package alphavantage reads daily price series from the Alpha Vantage API.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stocks"
)

// DefaultBaseURL is the Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// ErrRateLimited is returned when the API answers with a throttling note
// instead of data.
var ErrRateLimited = errors.New("alpha vantage rate limit or information note")

// Source fetches the full daily history of a symbol with TIME_SERIES_DAILY
// in CSV format.
type Source struct {
	APIKey  string
	BaseURL string       // defaults to DefaultBaseURL
	Client  *http.Client // defaults to a client without cache
}

// New returns a Source whose responses are cached in cacheDir for the day.
// Only CSV payloads are cached: error and throttling notes are JSON.
func New(apiKey, cacheDir string) *Source {
	return &Source{APIKey: apiKey, Client: stocks.NewCachingClient(cacheDir, isCSV)}
}

func isCSV(resp *http.Response) bool {
	return !strings.Contains(resp.Header.Get("Content-Type"), "json")
}

func (s *Source) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *Source) endpoint(symbol string) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("datatype", "csv")
	q.Set("apikey", s.APIKey)
	return base + "?" + q.Encode()
}

// FetchSeries implements stocks.PriceSource.
func (s *Source) FetchSeries(ctx context.Context, symbol string) ([]stocks.OHLCV, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(symbol), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "stx/1.0")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := checkError(symbol, body); err != nil {
		return nil, err
	}
	series, err := stocks.DecodeSeries(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s series: %w", symbol, err)
	}
	return series, nil
}

// notes maps the JSON paths of the messages Alpha Vantage sends in place of
// data to the error they stand for.
var notes = []struct {
	path string
	err  error
}{
	{`$["Error Message"]`, stocks.ErrInvalidSymbol},
	{`$.Note`, ErrRateLimited},
	{`$.Information`, ErrRateLimited},
}

// checkError detects the error payloads that must not be parsed as rows.
func checkError(symbol string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		if bytes.Contains(trimmed, []byte("Error Message")) {
			return fmt.Errorf("%w: %s", stocks.ErrInvalidSymbol, symbol)
		}
		return nil
	}

	var jobj any
	if err := json.Unmarshal(trimmed, &jobj); err != nil {
		return fmt.Errorf("unexpected payload for %s: %w", symbol, err)
	}
	for _, n := range notes {
		jval, err := jsonpath.Get(n.path, jobj)
		if err != nil {
			continue // unknown key
		}
		return fmt.Errorf("%w: %s: %v", n.err, symbol, jval)
	}
	return fmt.Errorf("unexpected JSON payload for %s", symbol)
}
