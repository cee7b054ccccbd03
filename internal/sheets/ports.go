package sheets

import (
	"context"
	"errors"

	"sheetledger/internal/core"
)

// Fixed layout of the backing spreadsheet.
const (
	ResourceName = "ExpenseTracker"
	SheetName    = "Expenses"
	MimeType     = "application/vnd.google-apps.spreadsheet"

	GridRows    = 1000
	GridColumns = 3

	HeaderRange = SheetName + "!A1:C1"
	DataRange   = SheetName + "!A2:C"
	AppendRange = SheetName + "!A2:C2"
)

// Header is written to row 1 when a resource is created.
var Header = []interface{}{"Name", "Amount", "Type"}

// ErrNotFound is returned by Locate when no resource carries the expected name.
var ErrNotFound = errors.New("ledger resource not found")

// LocateResult describes a successful lookup. Matches counts every resource
// with the expected name; the first one in provider order is used.
type LocateResult struct {
	ResourceID string
	Matches    int
}

// Ports for outbound adapters.
type (
	ResourceLocator interface {
		// Locate finds the ledger resource by name and mime type.
		Locate(ctx context.Context, name string) (LocateResult, error)
		// Create provisions a new resource with the fixed sheet and header row.
		Create(ctx context.Context, name string) (resourceID string, err error)
	}

	LedgerReader interface {
		// ReadEntries returns every data row of the resource, header excluded.
		ReadEntries(ctx context.Context, resourceID string) ([]core.Entry, error)
	}

	LedgerWriter interface {
		// AppendEntry inserts one row below the header without overwriting.
		AppendEntry(ctx context.Context, resourceID string, e core.Entry) error
	}

	// Backend is everything the ledger service needs from a provider.
	Backend interface {
		ResourceLocator
		LedgerReader
		LedgerWriter
	}
)
