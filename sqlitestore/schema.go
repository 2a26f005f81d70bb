package sqlitestore

// Prices are stored as decimal strings so that they read back exactly.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS prices (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   TEXT NOT NULL,
	high   TEXT NOT NULL,
	low    TEXT NOT NULL,
	close  TEXT NOT NULL,
	volume INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date);
`
