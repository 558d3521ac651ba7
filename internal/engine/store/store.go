package store

import (
	"errors"
	"sort"

	"github.com/loomdb/loomdb/internal/engine/table"
	"github.com/loomdb/loomdb/internal/logging"
)

var log = logging.GetLogger("store")

// ErrNilTable is returned by Add when given a nil table.
var ErrNilTable = errors.New("store: nil table")

// Store maps unique table names to tables. It is not safe for
// concurrent use; callers serialize access externally.
type Store struct {
	tables map[string]*table.Table
}

// New constructs an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table.Table)}
}

// Add registers a table under its name. Overwriting an existing name
// replaces the mapping without destroying the previous table; the
// caller owns both lifetimes.
func (s *Store) Add(t *table.Table) error {
	if t == nil {
		return ErrNilTable
	}
	if _, exists := s.tables[t.Name()]; exists {
		log.Debug("replacing table", "name", t.Name())
	}
	s.tables[t.Name()] = t
	return nil
}

// Get returns the table registered under name, or nil if absent.
func (s *Store) Get(name string) *table.Table {
	return s.tables[name]
}

// Names returns the registered table names, sorted for deterministic
// output.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
