package eodhd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/stocks"
	"github.com/etnz/stocks/date"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/eod/MCD.US", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "demo" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		io.WriteString(w, `[
			{"date":"2024-02-12","open":290.5,"high":292.1,"low":289.0,"close":291.77,"adjusted_close":288.1,"volume":2715000},
			{"date":"2024-02-13","open":290.0,"high":290.4,"low":286.2,"close":287.8,"adjusted_close":284.2,"volume":3120400.0}
		]`)
	})
	mux.HandleFunc("/eod/BAD.US", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"date":"2024-02-12","open":1,"high":1,"low":1,"close":-1,"volume":1}]`)
	})
	mux.HandleFunc("/search/mcdonald", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"Code":"MCD","Exchange":"US","Name":"McDonald's Corp","Type":"Common Stock","Country":"USA","Currency":"USD","ISIN":"US5801351017","previousClose":287.8,"previousCloseDate":"2024-02-13"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &Source{APIKey: "demo", BaseURL: srv.URL, Client: srv.Client()}
}

func TestSource_FetchSeries(t *testing.T) {
	src := newTestSource(t)
	series, err := src.FetchSeries(context.Background(), "MCD")
	if err != nil {
		t.Fatalf("FetchSeries() error = %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("FetchSeries() returned %d records, want 2", len(series))
	}
	got := series[1]
	if got.Date != date.MustParse("2024-02-13") || !stocks.M(got.Close).Equal(stocks.M(287.8)) || got.Volume != 3120400 {
		t.Errorf("FetchSeries()[1] = %+v", got)
	}
}

func TestSource_FetchSeriesErrors(t *testing.T) {
	src := newTestSource(t)
	testCases := []struct {
		name    string
		source  *Source
		symbol  string
		wantErr error
	}{
		{"unknown symbol", src, "NOPE", stocks.ErrInvalidSymbol},
		{"negative close", src, "BAD", nil},
		{"bad key", &Source{APIKey: "nope", BaseURL: src.BaseURL, Client: src.Client}, "MCD", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.source.FetchSeries(context.Background(), tc.symbol)
			if err == nil {
				t.Fatalf("FetchSeries() succeeded, want an error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("FetchSeries() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSource_Search(t *testing.T) {
	src := newTestSource(t)
	results, err := src.Search(context.Background(), "mcdonald")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Symbol() != "MCD.US" {
		t.Errorf("Search() = %+v, want MCD.US", results)
	}
}

func TestSource_Ticker(t *testing.T) {
	testCases := []struct {
		exchange, symbol, want string
	}{
		{"", "AAPL", "AAPL.US"},
		{"XETRA", "SAP", "SAP.XETRA"},
		{"XETRA", "MCD.US", "MCD.US"},
	}
	for _, tc := range testCases {
		if got := (&Source{Exchange: tc.exchange}).ticker(tc.symbol); got != tc.want {
			t.Errorf("ticker(%q) = %q, want %q", tc.symbol, got, tc.want)
		}
	}
}
