package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"budgetmate/internal/core"
	ports "budgetmate/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Transactions"

var _ ports.Ledger = (*Client)(nil)

// Client mirrors the ledger into one tab of a spreadsheet. Column A holds
// the transaction id and is used to locate rows.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// id -> 1-based sheet row, refreshed from column A when stale
	mu                 sync.Mutex
	rowIndex           map[int64]int
	lastRow            int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// NewFromEnv creates a client from GOOGLE_SPREADSHEET_ID and GOOGLE_SHEET_NAME
// (default "Transactions"). Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), os.Getenv("GOOGLE_SHEET_NAME"))
}

func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: 5 * time.Minute,
	}
	if err := c.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:G1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote ledger header", "sheet", c.sheetName)
	return nil
}

func (c *Client) Upsert(ctx context.Context, row ports.LedgerRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rowNum, err := c.locate(ctx, row.ID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if rowNum == 0 {
		c.lastRow++
		rowNum = c.lastRow
		c.rowIndex[row.ID] = rowNum
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, rowNum, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{toRowValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidate()
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// Remove clears the row holding id. Rows are cleared, not deleted, so that
// cached row numbers of other ids stay valid.
func (c *Client) Remove(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rowNum, err := c.locate(ctx, id)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, rowNum, rowNum)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		c.invalidate()
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	c.mu.Lock()
	delete(c.rowIndex, id)
	c.mu.Unlock()
	return nil
}

func (c *Client) Rows(ctx context.Context) ([]ports.LedgerRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRows(resp.Values), nil
}

// locate returns the sheet row for id, or 0 when absent.
func (c *Client) locate(ctx context.Context, id int64) (int, error) {
	c.mu.Lock()
	fresh := c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt)
	if fresh {
		row := c.rowIndex[id]
		c.mu.Unlock()
		return row, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	index, last := indexRows(resp.Values)

	c.mu.Lock()
	c.rowIndex = index
	c.lastRow = last
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	row := index[id]
	c.mu.Unlock()
	return row, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

// indexRows maps ids found in column A to their 1-based row and reports
// the last used row. The header and blank rows are skipped.
func indexRows(values [][]any) (map[int64]int, int) {
	index := make(map[int64]int, len(values))
	last := len(values)
	if last < 1 {
		last = 1
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		index[id] = i + 1
	}
	return index, last
}

func toRowValues(r ports.LedgerRow) []any {
	return []any{
		strconv.FormatInt(r.ID, 10),
		r.Username,
		r.Type,
		r.Category,
		r.Amount.String(),
		r.Date,
		r.Note,
	}
}

func parseRows(values [][]any) []ports.LedgerRow {
	var out []ports.LedgerRow
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) < 6 {
			continue
		}
		id, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil {
			continue
		}
		amount, err := core.ParseMoney(cols[4])
		if err != nil {
			continue
		}
		out = append(out, ports.LedgerRow{
			ID:       id,
			Username: cols[1],
			Type:     cols[2],
			Category: cols[3],
			Amount:   amount,
			Date:     cols[5],
			Note:     safeGet(cols, 6),
		})
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
