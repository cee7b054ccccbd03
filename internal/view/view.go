// Package view turns ledger rows into the list view model shown under the
// entry form. Rendering is pure: the same rows and filter always produce the
// same ListView, and markup is produced from it by a single template.
package view

import (
	"fmt"

	"sheetledger/internal/core"
)

// List messages.
const (
	MessageEmpty       = "No entries found. Add your first entry above."
	MessageNotResolved = "Connect a spreadsheet to see your entries."
	MessageLoadError   = "Error loading entries. Please try again."
	MessageLoading     = "Loading entries..."

	messageEmptyFilterFmt = "No %s entries found."
	unknownName           = "Unknown"
)

// State tells the template which branch of the list to draw.
type State string

const (
	StateList        State = "list"
	StateEmpty       State = "empty"
	StateNotResolved State = "not_resolved"
	StateError       State = "error"
	StateLoading     State = "loading"
)

type (
	// Item is one displayed row.
	Item struct {
		Name    string
		Type    core.EntryType
		Sign    string
		Amount  string // two decimals, no symbol
		Display string // e.g. "- ₹3.50"
	}

	// Tab is one filter button. Exactly one tab in a ListView is Active.
	Tab struct {
		Key    core.Filter
		Label  string
		Active bool
	}

	// ListView is everything entries.html needs.
	ListView struct {
		State   State
		Filter  core.Filter
		Tabs    []Tab
		Items   []Item
		Message string
	}
)

var tabLabels = map[core.Filter]string{
	core.FilterAll:     "All",
	core.FilterExpense: "Expenses",
	core.FilterIncome:  "Income",
}

// Render filters rows and builds the list view. An empty ledger gets the
// generic message whatever the filter; a ledger with no rows of the selected
// type gets the filter-specific one.
func Render(rows []core.Entry, filter core.Filter) ListView {
	return RenderFiltered(filter.Apply(rows), len(rows), filter)
}

// RenderFiltered builds the view from rows that are already filtered. total is
// the unfiltered row count.
func RenderFiltered(filtered []core.Entry, total int, filter core.Filter) ListView {
	v := ListView{Filter: filter, Tabs: Tabs(filter)}
	switch {
	case total == 0:
		v.State = StateEmpty
		v.Message = MessageEmpty
	case len(filtered) == 0:
		v.State = StateEmpty
		v.Message = EmptyMessage(filter)
	default:
		v.State = StateList
		v.Items = make([]Item, 0, len(filtered))
		for _, e := range filtered {
			v.Items = append(v.Items, NewItem(e))
		}
	}
	return v
}

// NotResolved is shown while the session has no spreadsheet.
func NotResolved(filter core.Filter) ListView {
	return message(StateNotResolved, MessageNotResolved, filter)
}

// LoadError replaces the list when reading rows failed.
func LoadError(filter core.Filter) ListView {
	return message(StateError, MessageLoadError, filter)
}

// Loading is the placeholder painted before the first load completes.
func Loading(filter core.Filter) ListView {
	return message(StateLoading, MessageLoading, filter)
}

func message(state State, msg string, filter core.Filter) ListView {
	return ListView{State: state, Filter: filter, Tabs: Tabs(filter), Message: msg}
}

// EmptyMessage returns the empty-state text for filter.
func EmptyMessage(filter core.Filter) string {
	if filter == core.FilterAll {
		return MessageEmpty
	}
	return fmt.Sprintf(messageEmptyFilterFmt, filter)
}

// Tabs returns the tab strip with active marked. An unknown key activates "all".
func Tabs(active core.Filter) []Tab {
	if _, ok := tabLabels[active]; !ok {
		active = core.FilterAll
	}
	filters := core.Filters()
	tabs := make([]Tab, 0, len(filters))
	for _, f := range filters {
		tabs = append(tabs, Tab{Key: f, Label: tabLabels[f], Active: f == active})
	}
	return tabs
}

// NewItem formats one entry for display.
func NewItem(e core.Entry) Item {
	name := e.Name
	if name == "" {
		name = unknownName
	}
	sign := "+"
	if e.Type == core.Expense {
		sign = "-"
	}
	return Item{
		Name:    name,
		Type:    e.Type,
		Sign:    sign,
		Amount:  e.Amount.StringFixed(2),
		Display: sign + " " + core.FormatAmount(e.Amount),
	}
}
