//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"budgetmate/internal/core"
	ports "budgetmate/internal/sheets"
)

// Requires real credentials:
// go test -tags=integration ./internal/sheets/google

func TestIntegration_LedgerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	id := time.Now().UnixNano()
	row := ports.LedgerRow{
		ID:       id,
		Username: "integration",
		Type:     "Expense",
		Category: "Other",
		Amount:   core.Money{Cents: 123},
		Date:     time.Now().Format(core.DateLayout),
		Note:     "integration test",
	}
	if err := client.Upsert(ctx, row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	t.Cleanup(func() { _ = client.Remove(context.Background(), id) })

	rows, err := client.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.ID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("row %d not found after upsert", id)
	}
}
