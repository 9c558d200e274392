package http

import (
	"net/http"
	"net/url"
	"strings"

	"budgetmate/internal/core"
)

// basePage carries what the shared layout needs.
type basePage struct {
	Title  string
	Active string
	User   *core.User
	Flash  string
	Error  string
}

type authPage struct {
	basePage
	Username string
}

type dashboardPage struct {
	basePage
	Month      core.Month
	Summary    core.BudgetSummary
	Recent     []core.Transaction
	Categories []core.Category
	Types      []core.TransactionType
	Today      string
}

type transactionsPage struct {
	basePage
	Month        core.Month
	Summary      core.BudgetSummary
	Warning      string
	Alert        string
	Transactions []core.Transaction
}

type reportsPage struct {
	basePage
	Chart LineChart
	Bars  []CategoryBar
	Total core.Money
}

type goalsPage struct {
	basePage
	Goals []core.Goal
}

// flashMessages maps the ?flash= key set by a redirect to its text. Only
// known keys are shown.
var flashMessages = map[string]string{
	"registered":  "Account created. Please log in.",
	"loggedout":   "You have been logged out.",
	"budget":      "Budget updated.",
	"added":       "Transaction added!",
	"deleted":     "Transaction deleted.",
	"goaladded":   "Goal added!",
	"goalupdated": "Goal updated.",
	"goaldeleted": "Goal deleted.",
}

func (s *Server) newBasePage(r *http.Request, title, active string) basePage {
	p := basePage{Title: title, Active: active, Flash: flashMessages[r.URL.Query().Get("flash")]}
	if u, ok := userFromContext(r.Context()); ok {
		p.User = &u
	}
	return p
}

// budgetNotices returns the warning and alert shown with a budget summary.
func budgetNotices(sum core.BudgetSummary) (warning, alert string) {
	switch sum.Status {
	case core.BudgetNear:
		return "You are close to reaching your monthly budget!", ""
	case core.BudgetOver:
		return "", "You have reached your monthly budget limit. Consider reviewing your expenses."
	}
	return "", ""
}

// redirectAfterPost finishes a successful state change: htmx clients get
// HX-Redirect plus the triggers set on b, browsers a 303.
func redirectAfterPost(w http.ResponseWriter, r *http.Request, b *hxResponse, location string) {
	if isHTMX(r) {
		b.Redirect(location).Status(http.StatusOK).Write(w)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

type errorPage struct {
	basePage
	Status int
	Back   string
}

// inputError answers a rejected form. htmx gets the error fragment to
// swap into the form; browsers an error page linking back.
func (s *Server) inputError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		errorFragment(status, msg).Write(w)
		return
	}
	page := errorPage{basePage: s.newBasePage(r, "Error", ""), Status: status, Back: backLink(r)}
	page.Error = msg
	s.render(w, r, status, "error.html", page)
}

// backLink returns a same-site Referer path, or "/".
func backLink(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
