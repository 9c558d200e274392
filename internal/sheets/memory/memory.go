package memory

import (
	"context"
	"sort"
	"sync"

	ports "budgetmate/internal/sheets"
)

var _ ports.Ledger = (*Store)(nil)

// Store is an in-process ledger used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows map[int64]ports.LedgerRow
}

func New() *Store {
	return &Store{rows: make(map[int64]ports.LedgerRow)}
}

func (s *Store) Upsert(_ context.Context, row ports.LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.ID] = row
	return nil
}

func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Rows returns the ledger ordered by transaction id.
func (s *Store) Rows(_ context.Context) ([]ports.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.LedgerRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
