package repository

import (
	"fmt"
	"sync"
)

// schemaSet remembers which per-procedure tables were already created.
type schemaSet struct {
	mu    sync.Mutex
	ready map[string]bool
}

func newSchemaSet() *schemaSet {
	return &schemaSet{ready: make(map[string]bool)}
}

// ensure runs create once per table. A failed create is retried next time.
func (s *schemaSet) ensure(table string, create func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready[table] {
		return nil
	}
	if err := create(); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	s.ready[table] = true
	return nil
}
