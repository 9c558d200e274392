package http

import (
	"net/http"
	"strconv"
	"time"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)
	month := core.CurrentMonth(time.Now())

	sum, err := s.budgets.Summary(ctx, user.ID, month)
	if err != nil {
		s.serverError(w, r, "Failed to load budget summary", err, applog.OpRead)
		return
	}
	txs, err := s.transactions.List(ctx, user.ID)
	if err != nil {
		s.serverError(w, r, "Failed to list transactions", err, applog.OpList)
		return
	}

	page := transactionsPage{
		basePage:     s.newBasePage(r, "Your Transactions", "transactions"),
		Month:        month,
		Summary:      sum,
		Transactions: txs,
	}
	page.Warning, page.Alert = budgetNotices(sum)
	s.render(w, r, http.StatusOK, "transactions.html", page)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	p, err := parseBody(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	nt, err := ParseTransactionInput(p, time.Now())
	if err != nil {
		s.transactionRejected(w, r, err)
		return
	}

	t, err := s.transactions.Add(ctx, user.ID, nt)
	if core.IsValidationError(err) {
		s.transactionRejected(w, r, err)
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to add transaction", err, applog.OpCreate)
		return
	}

	s.appMetrics.transactionsCreated.Add(1)
	s.events.LogTransactionCreated(ctx, user.ID, t.ID, string(t.Type), string(t.Category), t.Amount.Cents, t.Date.String())

	b := htmx().
		TransactionCreated(t.ID, t.Date.MonthKey().String()).
		ResetForm().
		Notify(flashMessages["added"])
	redirectAfterPost(w, r, b, "/?flash=added")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	id, err := parseID(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, core.ValidationMessage(err, "Invalid id."))
		return
	}

	if err := s.transactions.Delete(ctx, user.ID, id); err != nil {
		s.serverError(w, r, "Failed to delete transaction", err, applog.OpDelete)
		return
	}

	s.appMetrics.transactionsDeleted.Add(1)
	applog.FromContext(ctx).InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id)

	b := htmx().
		TransactionDeleted(id).
		Notify("Transaction ID " + strconv.FormatInt(id, 10) + " deleted.")
	redirectAfterPost(w, r, b, "/transactions?flash=deleted")
}

func (s *Server) transactionRejected(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	applog.FromContext(ctx).WarnContext(ctx, "Transaction rejected",
		applog.FieldErrorType, applog.ErrorTypeValidation,
		applog.FieldError, err.Error())
	s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid transaction."))
}
