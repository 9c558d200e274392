package http

import (
	"net/http"
	"strconv"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"

	"golang.org/x/sync/errgroup"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var (
		series []core.DateTotal
		totals map[core.Category]core.Money
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		series, err = s.reports.SummarizeByDate(ctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.reports.SummarizeByCategory(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.serverError(w, r, "Failed to build reports", err, applog.OpRead)
		return
	}

	page := reportsPage{
		basePage: s.newBasePage(r, "Reports", "reports"),
		Chart:    buildLineChart(series),
		Bars:     buildCategoryBars(totals),
	}
	for _, m := range totals {
		page.Total = page.Total.Add(m)
	}
	s.render(w, r, http.StatusOK, "reports.html", page)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	data, err := s.reports.ExportCSV(ctx, user.ID)
	if err != nil {
		s.serverError(w, r, "Failed to export transactions", err, applog.OpExport)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		"bytes", len(data))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
