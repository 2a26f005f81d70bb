package eodhd

import (
	"context"
	"fmt"
	"net/url"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string  `json:"Code"`
	Exchange          string  `json:"Exchange"`
	Name              string  `json:"Name"`
	Type              string  `json:"Type"`
	Country           string  `json:"Country"`
	Currency          string  `json:"Currency"`
	ISIN              string  `json:"ISIN"`
	PreviousClose     float64 `json:"previousClose"`
	PreviousCloseDate string  `json:"previousCloseDate"`
}

// Symbol returns the symbol to use with this source.
func (r SearchResult) Symbol() string { return r.Code + "." + r.Exchange }

// Search searches for securities by name, ticker or ISIN.
func (s *Source) Search(ctx context.Context, term string) ([]SearchResult, error) {
	addr := fmt.Sprintf("%s/search/%s?api_token=%s&fmt=json", s.base(), url.PathEscape(term), url.QueryEscape(s.APIKey))

	var results []SearchResult
	if err := jwget(ctx, s.client(), addr, &results); err != nil {
		return nil, fmt.Errorf("cannot search %q: %w", term, err)
	}
	return results, nil
}
