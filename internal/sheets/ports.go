package sheets

import (
	"context"

	"budgetmate/internal/core"
)

// LedgerRow is one mirrored transaction.
type LedgerRow struct {
	ID       int64
	Username string
	Type     string
	Category string
	Amount   core.Money
	Date     string
	Note     string
}

// Header is the column order of the mirrored ledger.
var Header = []string{"ID", "Username", "Type", "Category", "Amount", "Date", "Note"}

// Ports for outbound adapters.
type (
	// LedgerWriter keeps an external copy of every transaction.
	LedgerWriter interface {
		// Upsert writes row, replacing an existing row with the same ID.
		Upsert(ctx context.Context, row LedgerRow) error
		// Remove deletes the row with id. Unknown ids are not an error.
		Remove(ctx context.Context, id int64) error
	}

	LedgerReader interface {
		Rows(ctx context.Context) ([]LedgerRow, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerReader
	}
)
