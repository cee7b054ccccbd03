package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"sheetledger/internal/core"
	ports "sheetledger/internal/sheets"
)

// Store is an in-process stand-in for Drive and Sheets used by the local
// backend and by tests. Resources are keyed by id; names may repeat just like
// on Drive.
type Store struct {
	mu       sync.Mutex
	seq      int
	names    []resource
	rows     map[string][]core.Entry
	seed     []core.Entry
	failNext map[string]error
	locates  int
}

type resource struct {
	id   string
	name string
}

// Ensure interface conformance
var _ ports.Backend = (*Store)(nil)

// ErrInjected is the default error returned by FailNext.
var ErrInjected = errors.New("injected failure")

func New() *Store {
	return &Store{rows: map[string][]core.Entry{}, failNext: map[string]error{}}
}

// NewFromFile builds a store whose newly created resources start with the
// entries listed in path ("name,amount,type" per line). A missing file yields
// an empty seed.
func NewFromFile(path string) *Store {
	s := New()
	s.seed = readEntries(path)
	return s
}

// FailNext makes the next call to op ("locate", "create", "read", "append")
// return err, or ErrInjected when err is nil.
func (s *Store) FailNext(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

func (s *Store) takeFailure(op string) error {
	err, ok := s.failNext[op]
	if ok {
		delete(s.failNext, op)
	}
	return err
}

// AddResource registers an existing resource with the given rows and returns
// its id. Tests use it to model duplicates.
func (s *Store) AddResource(name string, rows ...core.Entry) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.names = append(s.names, resource{id: id, name: name})
	s.rows[id] = append([]core.Entry(nil), rows...)
	return id
}

func (s *Store) nextID() string {
	s.seq++
	return fmt.Sprintf("mem-%d", s.seq)
}

func (s *Store) Locate(_ context.Context, name string) (ports.LocateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locates++
	if err := s.takeFailure("locate"); err != nil {
		return ports.LocateResult{}, err
	}
	var res ports.LocateResult
	for _, r := range s.names {
		if r.name != name {
			continue
		}
		if res.Matches == 0 {
			res.ResourceID = r.id
		}
		res.Matches++
	}
	if res.Matches == 0 {
		return ports.LocateResult{}, ports.ErrNotFound
	}
	return res, nil
}

func (s *Store) Create(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("create"); err != nil {
		return "", err
	}
	id := s.nextID()
	s.names = append(s.names, resource{id: id, name: name})
	s.rows[id] = append([]core.Entry(nil), s.seed...)
	return id, nil
}

func (s *Store) ReadEntries(_ context.Context, resourceID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("read"); err != nil {
		return nil, err
	}
	rows, ok := s.rows[resourceID]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", resourceID, ports.ErrNotFound)
	}
	return append([]core.Entry(nil), rows...), nil
}

// AppendEntry stores the entry after the existing rows.
func (s *Store) AppendEntry(_ context.Context, resourceID string, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("append"); err != nil {
		return err
	}
	if _, ok := s.rows[resourceID]; !ok {
		return fmt.Errorf("resource %s: %w", resourceID, ports.ErrNotFound)
	}
	s.rows[resourceID] = append(s.rows[resourceID], e)
	return nil
}

// Locates reports how many Locate calls were made.
func (s *Store) Locates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locates
}

// Count returns how many resources carry name.
func (s *Store) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.names {
		if r.name == name {
			n++
		}
	}
	return n
}

func readEntries(path string) []core.Entry {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		e := core.NewEntry(parts[0], parts[1], parts[2])
		if e.Name == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
