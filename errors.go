package stocks

import (
	"errors"
	"io/fs"
)

// Errors returned by this package. They are wrapped with context, use
// errors.Is to branch on them.
var (
	ErrEmptyName            = errors.New("portfolio name is empty")
	ErrDuplicateName        = errors.New("portfolio already exists")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrFutureDate           = errors.New("date is in the future")
	ErrWeekendDate          = errors.New("date is a weekend")
	ErrDuplicateTransaction = errors.New("a transaction already exists on that date")
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrInsufficientQuantity = errors.New("insufficient quantity held")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrInvalidWindow        = errors.New("invalid moving average window")
	ErrFileNotFound         = fs.ErrNotExist
	ErrIO                   = errors.New("i/o failure")
)
