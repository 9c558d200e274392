// Package backend selects the ledger the mirror worker copies
// transactions into.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"budgetmate/internal/config"
	"budgetmate/internal/sheets"
	gsheet "budgetmate/internal/sheets/google"
	"budgetmate/internal/sheets/memory"
)

type Kind string

const (
	Memory Kind = "memory"
	Sheets Kind = "sheets"
)

// Settings describes one mirror ledger.
type Settings struct {
	Kind          Kind
	SpreadsheetID string
	SheetName     string
}

type opener func(ctx context.Context, s Settings) (sheets.Ledger, error)

var openers = map[Kind]opener{
	Memory: func(context.Context, Settings) (sheets.Ledger, error) {
		return memory.New(), nil
	},
	Sheets: func(ctx context.Context, s Settings) (sheets.Ledger, error) {
		return gsheet.New(ctx, s.SpreadsheetID, s.SheetName)
	},
}

// Kinds lists the supported ledger kinds in alphabetical order.
func Kinds() []string {
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// SettingsFrom picks the mirror settings out of the application config.
func SettingsFrom(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		return Settings{}, errors.New("backend: nil config")
	}
	s := Settings{
		Kind:          Kind(cfg.MirrorBackend),
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	if _, ok := openers[s.Kind]; !ok {
		return fmt.Errorf("backend: unknown mirror backend %q, want one of %v", s.Kind, Kinds())
	}
	if s.Kind == Sheets && (s.SpreadsheetID == "" || s.SheetName == "") {
		return errors.New("backend: sheets mirror needs a spreadsheet id and a sheet name")
	}
	return nil
}

// Open validates s and connects the ledger it describes.
func Open(ctx context.Context, s Settings, logger *slog.Logger) (sheets.Ledger, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ledger, err := openers[s.Kind](ctx, s)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s ledger: %w", s.Kind, err)
	}
	logger.InfoContext(ctx, "Mirror ledger ready",
		"backend", string(s.Kind),
		"spreadsheet_id", s.SpreadsheetID,
		"sheet", s.SheetName)
	return ledger, nil
}
