package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetmate/internal/cache"
	"budgetmate/internal/core"

	"golang.org/x/sync/singleflight"
)

// CSVHeader is the first line of every export.
var CSVHeader = []string{"Type", "Category", "Amount", "Date"}

type TransactionLister interface {
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
}

type expenseReport struct {
	byDate     []core.DateTotal
	byCategory map[core.Category]core.Money
}

// ReportService aggregates expenses per user. Aggregates are cached until
// the user's ledger changes or the entry expires.
type ReportService struct {
	store TransactionLister
	cache cache.Cache[expenseReport]
	group singleflight.Group

	mu          sync.Mutex
	generations map[int64]uint64
}

// NewReportService accepts a nil cache, in which case nothing is cached.
func NewReportService(store TransactionLister, c *cache.LRUCache[expenseReport]) *ReportService {
	s := &ReportService{
		store:       store,
		generations: make(map[int64]uint64),
	}
	if c != nil {
		s.cache = c
	}
	return s
}

// NewReportCache builds the cache type ReportService expects.
func NewReportCache(size int, ttl time.Duration) *cache.LRUCache[expenseReport] {
	return cache.NewLRUCache[expenseReport](size, ttl)
}

func (s *ReportService) SummarizeByDate(ctx context.Context, userID int64) ([]core.DateTotal, error) {
	r, err := s.report(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append([]core.DateTotal(nil), r.byDate...), nil
}

func (s *ReportService) SummarizeByCategory(ctx context.Context, userID int64) (map[core.Category]core.Money, error) {
	r, err := s.report(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[core.Category]core.Money, len(r.byCategory))
	for k, v := range r.byCategory {
		out[k] = v
	}
	return out, nil
}

// ExportCSV writes every transaction of the user in storage order.
func (s *ReportService) ExportCSV(ctx context.Context, userID int64) ([]byte, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		record := []string{string(t.Type), string(t.Category), t.Amount.String(), t.Date.String()}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	slog.InfoContext(ctx, "Transactions exported", "user_id", userID, "rows", len(txs))
	return buf.Bytes(), nil
}

// InvalidateUser drops the cached aggregates of userID. Loads already in
// flight are detached, so later callers read the ledger again.
func (s *ReportService) InvalidateUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	s.group.Forget(reportKey(userID))
	if s.cache != nil {
		s.cache.DeletePrefix(userPrefix(userID))
	}
}

func (s *ReportService) report(ctx context.Context, userID int64) (expenseReport, error) {
	key := reportKey(userID)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation(userID)
		txs, err := s.store.ListTransactions(ctx, userID)
		if err != nil {
			return expenseReport{}, fmt.Errorf("list transactions: %w", err)
		}
		r := expenseReport{
			byDate:     core.SummarizeByDate(txs),
			byCategory: core.SummarizeByCategory(txs),
		}
		s.storeIfCurrent(userID, gen, key, r)
		return r, nil
	})
	if err != nil {
		return expenseReport{}, err
	}
	return v.(expenseReport), nil
}

// storeIfCurrent caches r unless userID's ledger changed since gen.
func (s *ReportService) storeIfCurrent(userID int64, gen uint64, key string, r expenseReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil && s.generations[userID] == gen {
		s.cache.Set(key, r)
	}
}

func (s *ReportService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// CacheStats returns nil when caching is disabled.
func (s *ReportService) CacheStats() *cache.Stats {
	lru, ok := s.cache.(*cache.LRUCache[expenseReport])
	if !ok || lru == nil {
		return nil
	}
	st := lru.Stats()
	return &st
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func reportKey(userID int64) string {
	return userPrefix(userID) + "report"
}
