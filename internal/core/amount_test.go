package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"3.5", "3.50"},
		{" 12 ", "12.00"},
		{"12abc", "12.00"},
		{"-4.25", "-4.25"},
		{"0.5kg", "0.50"},
		{"1e2", "100.00"},
		{"1.005", "1.01"},
		{"", "0.00"},
		{"abc", "0.00"},
		{"₹3", "0.00"},
	}
	for _, tc := range cases {
		got := CoerceAmount(tc.in).StringFixed(2)
		if got != tc.out {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestCoerceCell(t *testing.T) {
	cases := []struct {
		in  interface{}
		out string
	}{
		{3.5, "3.50"},
		{int64(7), "7.00"},
		{"2.25", "2.25"},
		{nil, "0.00"},
		{true, "0.00"},
	}
	for _, tc := range cases {
		if got := CoerceCell(tc.in).StringFixed(2); got != tc.out {
			t.Fatalf("%v expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(CoerceAmount("3.5")); got != "₹3.50" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestParseAmountOutOfRange(t *testing.T) {
	for _, in := range []string{"1e400", "-1e400", "1e20000000", "1e13", "1000000000001"} {
		d, err := ParseAmount(in)
		if !errors.Is(err, ErrAmountOutOfRange) {
			t.Fatalf("%q: expected ErrAmountOutOfRange, got %v", in, err)
		}
		if !d.IsZero() {
			t.Fatalf("%q: expected zero, got %s", in, d)
		}
	}
	for _, in := range []string{"Infinity", "-Infinity", "NaN", "0x10"} {
		d, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !d.IsZero() {
			t.Fatalf("%q: expected zero, got %s", in, d)
		}
	}
	if d, err := ParseAmount("1e12"); err != nil || d.StringFixed(0) != "1000000000000" {
		t.Fatalf("1e12: got %s, %v", d, err)
	}
}

func TestCoerceAmountHugeExponentIsCheap(t *testing.T) {
	start := time.Now()
	e := NewEntry("x", "1e20000000", "expense")
	if got := FormatAmount(e.Amount); got != "₹0.00" {
		t.Fatalf("unexpected format: %q", got)
	}
	if row := e.Row(); row[1].(float64) != 0 {
		t.Fatalf("unexpected row amount: %v", row[1])
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("coercion took %v", elapsed)
	}
}

func TestCoerceCellOutOfRange(t *testing.T) {
	for _, in := range []interface{}{math.Inf(1), math.NaN(), 1e308, int64(math.MaxInt64), "1e400"} {
		if got := CoerceCell(in); !got.IsZero() {
			t.Fatalf("%v expected zero, got %s", in, got)
		}
	}
}
