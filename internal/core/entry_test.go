package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseEntryType(t *testing.T) {
	cases := map[string]EntryType{
		"income":  Income,
		" Income": Income,
		"expense": Expense,
		"":        Expense,
		"refund":  Expense,
	}
	for in, want := range cases {
		if got := ParseEntryType(in); got != want {
			t.Fatalf("%q expected %s, got %s", in, want, got)
		}
	}
}

func TestParseFilter(t *testing.T) {
	for _, key := range []string{"all", "expense", "income", ""} {
		if _, err := ParseFilter(key); err != nil {
			t.Fatalf("%q expected ok, got %v", key, err)
		}
	}
	f, err := ParseFilter("bogus")
	if !errors.Is(err, ErrUnknownFilter) || f != FilterAll {
		t.Fatalf("expected FilterAll with ErrUnknownFilter, got %s %v", f, err)
	}
}

func TestParseFilterIgnoresCase(t *testing.T) {
	cases := map[string]Filter{
		"Income":    FilterIncome,
		" EXPENSE ": FilterExpense,
		"All":       FilterAll,
	}
	for in, want := range cases {
		got, err := ParseFilter(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (%v)", in, want, got, err)
		}
	}
}

func TestFilterApply(t *testing.T) {
	entries := []Entry{
		{Name: "Coffee", Amount: decimal.NewFromFloat(3.5), Type: Expense},
		{Name: "Salary", Amount: decimal.NewFromInt(1000), Type: Income},
		{Name: "Rent", Amount: decimal.NewFromInt(500), Type: Expense},
	}

	all := FilterAll.Apply(entries)
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	income := FilterIncome.Apply(entries)
	if len(income) != 1 || income[0].Name != "Salary" {
		t.Fatalf("unexpected income entries: %+v", income)
	}

	expense := FilterExpense.Apply(entries)
	if len(expense) != 2 || expense[0].Name != "Coffee" || expense[1].Name != "Rent" {
		t.Fatalf("expected expenses in input order, got %+v", expense)
	}
	for _, e := range expense {
		if e.Type != Expense {
			t.Fatalf("filtered entry has wrong type: %+v", e)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	if err := NewEntry("Coffee", "3.5", "expense").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := NewEntry("  ", "3.5", "expense").Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Entry{Name: "x", Type: "gift"}).Validate(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestEntryRow(t *testing.T) {
	row := NewEntry("Coffee", "3.5", "expense").Row()
	if len(row) != 3 || row[0] != "Coffee" || row[1] != 3.5 || row[2] != "expense" {
		t.Fatalf("unexpected row: %#v", row)
	}
}
