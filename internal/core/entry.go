package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Expense EntryType = "expense"
	Income  EntryType = "income"
)

const (
	FilterAll     Filter = "all"
	FilterExpense Filter = Filter(Expense)
	FilterIncome  Filter = Filter(Income)
)

type (
	// EntryType classifies a ledger row as money going out or coming in.
	EntryType string

	// Filter selects entries by type; FilterAll keeps every row.
	Filter string

	// Entry is one ledger row: name, amount and type, in sheet column order.
	Entry struct {
		Name   string
		Amount decimal.Decimal
		Type   EntryType
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrUnknownFilter = errors.New("unknown filter")
	ErrUnknownType   = errors.New("unknown entry type")
)

// ParseEntryType maps a raw cell or form value to an EntryType.
// Anything other than "income" is an expense, which is also the default
// for missing cells.
func ParseEntryType(s string) EntryType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Income):
		return Income
	default:
		return Expense
	}
}

// Valid reports whether t is one of the two known types.
func (t EntryType) Valid() bool {
	return t == Expense || t == Income
}

func (t EntryType) String() string { return string(t) }

// ParseFilter returns the filter for a tab key. Unknown keys yield FilterAll
// together with ErrUnknownFilter so callers can log them.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterExpense:
		return FilterExpense, nil
	case FilterIncome:
		return FilterIncome, nil
	default:
		return FilterAll, ErrUnknownFilter
	}
}

// Filters lists the tab keys in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterExpense, FilterIncome}
}

// Match is the equality predicate used by tab filtering.
func (f Filter) Match(e Entry) bool {
	return f == FilterAll || EntryType(f) == e.Type
}

func (f Filter) String() string { return string(f) }

// Apply returns the entries matching f, preserving order.
func (f Filter) Apply(entries []Entry) []Entry {
	if f == FilterAll {
		out := make([]Entry, len(entries))
		copy(out, entries)
		return out
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// NewEntry builds an entry from raw form values. Only trivial parsing is done:
// the amount is coerced the same way stored cells are.
func NewEntry(name, amount, typ string) Entry {
	return Entry{
		Name:   strings.TrimSpace(name),
		Amount: CoerceAmount(amount),
		Type:   ParseEntryType(typ),
	}
}

// Validate mirrors what the entry form enforces in the browser: a name is
// required and the type comes from a fixed select.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Type.Valid() {
		return ErrUnknownType
	}
	return nil
}

// Row returns the entry as a sheet row in A:C order.
func (e Entry) Row() []interface{} {
	return []interface{}{e.Name, e.Amount.InexactFloat64(), string(e.Type)}
}
