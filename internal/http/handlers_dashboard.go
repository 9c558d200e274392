package http

import (
	"net/http"
	"time"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"

	"golang.org/x/sync/errgroup"
)

const recentTransactions = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	now := time.Now()

	month, err := parseMonthParam(r, now)
	if err != nil {
		s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid month."))
		return
	}

	page := dashboardPage{
		basePage:   s.newBasePage(r, "Dashboard", "dashboard"),
		Month:      month,
		Categories: core.Categories,
		Types:      core.TransactionTypes,
		Today:      now.Format(core.DateLayout),
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		sum, err := s.budgets.Summary(ctx, user.ID, month)
		page.Summary = sum
		return err
	})
	g.Go(func() error {
		txs, err := s.transactions.List(ctx, user.ID)
		if err != nil {
			return err
		}
		page.Recent = latest(txs, recentTransactions)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.serverError(w, r, "Failed to load dashboard", err, applog.OpRead)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	p, err := parseBody(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	month := core.CurrentMonth(time.Now())
	if v := p.Get("month"); v != "" {
		if month, err = core.ParseMonth(v); err != nil {
			s.inputError(w, r, http.StatusUnprocessableEntity, "Month must be in YYYY-MM form.")
			return
		}
	}
	amount, err := core.ParseMoney(p.Get("budget"))
	if err != nil {
		s.inputError(w, r, http.StatusUnprocessableEntity, "Please enter a valid budget amount.")
		return
	}

	err = s.budgets.SetBudget(ctx, user.ID, month, amount)
	if core.IsValidationError(err) {
		s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid budget."))
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to set budget", err, applog.OpUpdate)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Budget updated",
		applog.FieldMonth, month.String(),
		applog.FieldAmountCents, amount.Cents)

	b := htmx().
		BudgetUpdated(month.String()).
		Notify(flashMessages["budget"])
	redirectAfterPost(w, r, b, "/?month="+month.String()+"&flash=budget")
}

// latest returns the last n transactions, newest first.
func latest(txs []core.Transaction, n int) []core.Transaction {
	if len(txs) < n {
		n = len(txs)
	}
	out := make([]core.Transaction, 0, n)
	for i := len(txs) - 1; i >= len(txs)-n; i-- {
		out = append(out, txs[i])
	}
	return out
}
