package google

import (
	"context"
	"os"
	"testing"

	"budgetmate/internal/core"
	ports "budgetmate/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Transactions")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	for _, key := range []string{"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestClient_NilServiceFails(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Transactions"}
	ctx := context.Background()

	if err := c.Upsert(ctx, ports.LedgerRow{ID: 1}); err == nil {
		t.Error("Upsert should fail without a service")
	}
	if err := c.Remove(ctx, 1); err == nil {
		t.Error("Remove should fail without a service")
	}
	if _, err := c.Rows(ctx); err == nil {
		t.Error("Rows should fail without a service")
	}
}

func TestIndexRows(t *testing.T) {
	values := [][]any{
		{"ID", "Username"},
		{"7", "alice"},
		{},
		{" 9 ", "bob"},
		{"not-an-id"},
	}

	index, last := indexRows(values)

	if last != 5 {
		t.Errorf("last row = %d, want 5", last)
	}
	if index[7] != 2 {
		t.Errorf("row for id 7 = %d, want 2", index[7])
	}
	if index[9] != 4 {
		t.Errorf("row for id 9 = %d, want 4", index[9])
	}
	if len(index) != 2 {
		t.Errorf("expected 2 indexed ids, got %d", len(index))
	}

	_, last = indexRows(nil)
	if last != 1 {
		t.Errorf("empty sheet should report the header row as last, got %d", last)
	}
}

func TestToRowValuesAndParseRows(t *testing.T) {
	row := ports.LedgerRow{
		ID:       42,
		Username: "alice",
		Type:     "Expense",
		Category: "Food",
		Amount:   core.Money{Cents: 1250},
		Date:     "2024-03-05",
		Note:     "lunch",
	}

	values := toRowValues(row)
	if values[4] != "12.50" {
		t.Errorf("amount column = %v, want 12.50", values[4])
	}

	sheet := [][]any{
		{"ID", "Username", "Type", "Category", "Amount", "Date", "Note"},
		values,
		{"43", "bob", "Income", "Salary", "100", "2024-03-06"},
		{"44", "short"},
	}
	rows := parseRows(sheet)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0] != row {
		t.Errorf("first row = %+v, want %+v", rows[0], row)
	}
	if rows[1].Amount.Cents != 10000 || rows[1].Note != "" {
		t.Errorf("second row = %+v", rows[1])
	}
}
