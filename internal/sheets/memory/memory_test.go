package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sheetledger/internal/core"
	ports "sheetledger/internal/sheets"
)

func TestStoreLocateCreateAppendRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Locate(ctx, ports.ResourceName); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	id, err := s.Create(ctx, ports.ResourceName)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := s.Locate(ctx, ports.ResourceName)
	if err != nil || res.ResourceID != id || res.Matches != 1 {
		t.Fatalf("unexpected locate: %+v err=%v", res, err)
	}

	for _, e := range []core.Entry{
		core.NewEntry("Coffee", "3.5", "expense"),
		core.NewEntry("Salary", "100", "income"),
	} {
		if err := s.AppendEntry(ctx, id, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	rows, err := s.ReadEntries(ctx, id)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Coffee" || rows[1].Name != "Salary" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestStoreDuplicatesFirstWins(t *testing.T) {
	s := New()
	first := s.AddResource(ports.ResourceName)
	s.AddResource(ports.ResourceName)
	res, err := s.Locate(context.Background(), ports.ResourceName)
	if err != nil || res.ResourceID != first || res.Matches != 2 {
		t.Fatalf("unexpected locate: %+v err=%v", res, err)
	}
}

func TestStoreFailNextIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := s.AddResource(ports.ResourceName)
	s.FailNext("append", nil)

	if err := s.AppendEntry(ctx, id, core.NewEntry("x", "1", "")); !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if err := s.AppendEntry(ctx, id, core.NewEntry("x", "1", "")); err != nil {
		t.Fatalf("second append should succeed: %v", err)
	}
	rows, _ := s.ReadEntries(ctx, id)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after failed+ok append, got %d", len(rows))
	}
}

func TestNewFromFileSeedsCreatedResources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed_entries.txt")
	content := "# name,amount,type\nRent,800,expense\n\nSalary,2000,income\n,5,expense\nTip\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s := NewFromFile(path)
	id, err := s.Create(context.Background(), ports.ResourceName)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rows, _ := s.ReadEntries(context.Background(), id)
	if len(rows) != 3 {
		t.Fatalf("expected 3 seeded rows, got %+v", rows)
	}
	if rows[2].Name != "Tip" || !rows[2].Amount.IsZero() || rows[2].Type != core.Expense {
		t.Fatalf("unexpected defaulted row: %+v", rows[2])
	}

	if s := NewFromFile(filepath.Join(dir, "missing.txt")); len(s.seed) != 0 {
		t.Fatalf("expected empty seed for missing file")
	}
}
