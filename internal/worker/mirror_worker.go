package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetmate/internal/amqp"
	"budgetmate/internal/cache"
	"budgetmate/internal/core"
	"budgetmate/internal/sheets"
)

// LedgerSource lists every stored transaction for a full resync.
type LedgerSource interface {
	LedgerEntries(ctx context.Context) ([]core.LedgerEntry, error)
}

// MirrorWorker applies transaction events to an external ledger.
type MirrorWorker struct {
	source LedgerSource
	ledger sheets.LedgerWriter
	seen   cache.Cache[struct{}]
}

// NewMirrorWorker remembers recently applied event ids for dedupeWindow so
// redelivered messages are acknowledged without touching the ledger.
func NewMirrorWorker(source LedgerSource, ledger sheets.LedgerWriter, dedupeWindow time.Duration) *MirrorWorker {
	if dedupeWindow <= 0 {
		dedupeWindow = 10 * time.Minute
	}
	return &MirrorWorker{
		source: source,
		ledger: ledger,
		seen:   cache.NewLRUCache[struct{}](4096, dedupeWindow),
	}
}

// HandleEvent is the AMQP consumer callback. A returned error requeues the
// message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if _, dup := w.seen.Get(ev.EventID); dup {
		slog.DebugContext(ctx, "Duplicate event skipped", "event_id", ev.EventID)
		return nil
	}

	slog.InfoContext(ctx, "Processing transaction event",
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"transaction_id", ev.TransactionID)

	switch ev.Kind {
	case amqp.EventCreated:
		if err := w.ledger.Upsert(ctx, rowFromEvent(ev)); err != nil {
			return fmt.Errorf("mirror transaction %d: %w", ev.TransactionID, err)
		}
	case amqp.EventDeleted:
		if err := w.ledger.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove mirrored transaction %d: %w", ev.TransactionID, err)
		}
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	if ev.EventID != "" {
		w.seen.Set(ev.EventID, struct{}{})
	}
	return nil
}

// Resync writes every stored transaction to the ledger. It recovers from
// events lost while the worker was down. Rows of transactions deleted in
// the meantime are not removed.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	entries, err := w.source.LedgerEntries(ctx)
	if err != nil {
		return fmt.Errorf("load ledger entries: %w", err)
	}
	if len(entries) == 0 {
		slog.InfoContext(ctx, "No transactions to mirror on startup")
		return nil
	}

	synced, failed := 0, 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ledger.Upsert(ctx, rowFromEntry(e)); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during resync",
				"transaction_id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup resync completed",
		"total", len(entries),
		"synced", synced,
		"errors", failed)
	return nil
}

func rowFromEvent(ev *amqp.TransactionEvent) sheets.LedgerRow {
	return sheets.LedgerRow{
		ID:       ev.TransactionID,
		Username: ev.Username,
		Type:     ev.Type,
		Category: ev.Category,
		Amount:   core.Money{Cents: ev.AmountCents},
		Date:     ev.Date,
		Note:     ev.Note,
	}
}

func rowFromEntry(e core.LedgerEntry) sheets.LedgerRow {
	return sheets.LedgerRow{
		ID:       e.ID,
		Username: e.Username,
		Type:     string(e.Type),
		Category: string(e.Category),
		Amount:   e.Amount,
		Date:     e.Date.String(),
		Note:     e.Note,
	}
}
