// Package stocks tracks stock portfolios valued with daily prices. It is
// local-first: prices and portfolios are plain CSV files the user can read
// and version.
//
// The core functionalities include:
//   - Price Cache: daily OHLCV records indexed by symbol then date, optionally
//     bounded in size and age, persisted as CSV (or SQLite, see sqlitestore).
//   - Price Lookup: cache-first access to prices. The first miss on a symbol
//     backfills its full history from a PriceSource, once.
//   - Ledgers: the dated buys and sells of one symbol, with the quantity
//     held, the net investment and the market value as of any date.
//   - Portfolios: named, validated sets of ledgers kept in a Registry.
//   - Performance: values of a symbol or a portfolio sampled over a range at
//     a resolution that depends on its length.
//   - Indicators: moving averages, crossovers and daily gains or losses.
//
// This package serves as the foundational logic for the `stx` command-line
// tool.
package stocks
