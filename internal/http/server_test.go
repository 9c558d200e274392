package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"budgetmate/internal/core"
	"budgetmate/internal/services"
	"budgetmate/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	srv  *Server
	repo *storage.SQLiteRepository
}

func newTestApp(t *testing.T, opts Options) *testApp {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reports := services.NewReportService(repo, services.NewReportCache(64, time.Minute))
	srv, err := NewServer(opts, Dependencies{
		Accounts:     services.NewAccountService(repo, bcrypt.MinCost, time.Hour),
		Budgets:      services.NewBudgetService(repo),
		Transactions: services.NewTransactionService(repo, nil, reports),
		Goals:        services.NewGoalService(repo),
		Reports:      reports,
		DB:           repo,
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testApp{srv: srv, repo: repo}
}

func (a *testApp) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie, fromHTMX bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if fromHTMX {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rr, req)
	return rr
}

// signupAndLogin registers username and returns its session cookie.
func (a *testApp) signupAndLogin(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/signup", url.Values{
		"username": {username}, "password": {"secret1"}, "confirm_password": {"secret1"},
	}, nil, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = a.do(t, http.MethodPost, "/login", url.Values{"username": {username}, "password": {"secret1"}}, nil, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t, Options{})

	rr := app.do(t, http.MethodGet, "/healthz", nil, nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = app.do(t, http.MethodGet, "/readyz", nil, nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)
	assert.Contains(t, rr.Body.String(), `"report_cache"`)

	rr = app.do(t, http.MethodGet, "/metrics", nil, nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t, Options{})
	rr := app.do(t, http.MethodGet, "/static/app.css", nil, nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t, Options{})

	for _, path := range []string{"/", "/transactions", "/reports", "/goals", "/reports/export.csv"} {
		rr := app.do(t, http.MethodGet, path, nil, nil, false)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/login", rr.Header().Get("Location"), path)
	}

	rr := app.do(t, http.MethodPost, "/transactions", url.Values{"amount": {"1"}}, nil, true)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("HX-Redirect"))

	stale := &http.Cookie{Name: sessionCookieName, Value: "bogus"}
	rr = app.do(t, http.MethodGet, "/", nil, stale, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestSignupAndLogin(t *testing.T) {
	app := newTestApp(t, Options{})

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "passwords differ",
			form:       url.Values{"username": {"alice"}, "password": {"secret1"}, "confirm_password": {"secret2"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Passwords do not match",
		},
		{
			name:       "short password",
			form:       url.Values{"username": {"alice"}, "password": {"abc"}, "confirm_password": {"abc"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "at least 6 characters",
		},
		{
			name:       "created",
			form:       url.Values{"username": {"alice"}, "password": {"secret1"}, "confirm_password": {"secret1"}},
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "duplicate",
			form:       url.Values{"username": {"alice"}, "password": {"secret1"}, "confirm_password": {"secret1"}},
			wantStatus: http.StatusConflict,
			wantBody:   "Username already exists.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.do(t, http.MethodPost, "/signup", tt.form, nil, false)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBody)
			}
		})
	}

	rr := app.do(t, http.MethodGet, "/login?flash=registered", nil, nil, false)
	assert.Contains(t, rr.Body.String(), "Account created. Please log in.")

	rr = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong!!"}}, nil, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid username or password.")

	rr = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"secret1"}}, nil, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "HttpOnly")
}

func TestDashboardBudgetAndTransactions(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")
	month := core.CurrentMonth(time.Now()).String()
	today := time.Now().Format(core.DateLayout)

	rr := app.do(t, http.MethodPost, "/budget", url.Values{"budget": {"100"}, "month": {month}}, cookie, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	for _, amount := range []string{"100", "50"} {
		rr = app.do(t, http.MethodPost, "/transactions", url.Values{
			"type": {"Expense"}, "category": {"Food"}, "amount": {amount}, "date": {today},
		}, cookie, false)
		require.Equal(t, http.StatusSeeOther, rr.Code)
	}

	rr = app.do(t, http.MethodGet, "/", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Welcome, alice")
	assert.Contains(t, body, "150.00")
	assert.Contains(t, body, "-50.00")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	rr = app.do(t, http.MethodGet, "/transactions", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "You have reached your monthly budget limit.")

	rr = app.do(t, http.MethodGet, "/?month=2026-13", nil, cookie, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAddTransaction_HTMX(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")

	rr := app.do(t, http.MethodPost, "/transactions", url.Values{
		"type": {"Expense"}, "category": {"Food"}, "amount": {"abc"},
	}, cookie, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, `<div class="error" role="alert">Please enter a valid amount.</div>`, rr.Body.String())

	rr = app.do(t, http.MethodPost, "/transactions", url.Values{
		"type": {"Expense"}, "category": {"Nope"}, "amount": {"5"},
	}, cookie, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unknown category.")

	rr = app.do(t, http.MethodPost, "/transactions", url.Values{
		"type": {"Income"}, "category": {"Salary"}, "amount": {"1000"}, "date": {"2026-03-05"},
	}, cookie, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/?flash=added", rr.Header().Get("HX-Redirect"))
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"transaction:created"`)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"month":"2026-03"`)
}

func TestDeleteTransaction_OnlyOwner(t *testing.T) {
	app := newTestApp(t, Options{})
	alice := app.signupAndLogin(t, "alice")
	bob := app.signupAndLogin(t, "bob")

	rr := app.do(t, http.MethodPost, "/transactions", url.Values{
		"type": {"Expense"}, "category": {"Rent"}, "amount": {"800"}, "date": {"2026-03-01"},
	}, alice, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	entries, err := app.repo.LedgerEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID
	target := "/transactions/" + itoa(id) + "/delete"

	rr = app.do(t, http.MethodPost, target, nil, bob, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	entries, err = app.repo.LedgerEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "bob must not delete alice's transaction")

	rr = app.do(t, http.MethodPost, target, nil, alice, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	entries, err = app.repo.LedgerEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	rr = app.do(t, http.MethodPost, "/transactions/abc/delete", nil, alice, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportsAndExport(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")

	rr := app.do(t, http.MethodGet, "/reports", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No expense data to show charts.")

	rr = app.do(t, http.MethodGet, "/reports/export.csv", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Type,Category,Amount,Date\n", rr.Body.String())

	for _, f := range []url.Values{
		{"type": {"Expense"}, "category": {"Food"}, "amount": {"12.5"}, "date": {"2026-03-01"}},
		{"type": {"Expense"}, "category": {"Rent"}, "amount": {"800"}, "date": {"2026-03-02"}},
	} {
		require.Equal(t, http.StatusSeeOther, app.do(t, http.MethodPost, "/transactions", f, cookie, false).Code)
	}

	rr = app.do(t, http.MethodGet, "/reports", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<polyline")
	assert.Contains(t, body, "Rent")
	assert.Contains(t, body, "812.50")

	rr = app.do(t, http.MethodGet, "/reports/export.csv", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transactions.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "Type,Category,Amount,Date\nExpense,Food,12.50,2026-03-01\nExpense,Rent,800.00,2026-03-02\n", rr.Body.String())
}

func TestGoalsLifecycle(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")

	rr := app.do(t, http.MethodPost, "/goals", url.Values{"name": {""}, "target_amount": {"200"}}, cookie, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Goal name is required.")

	rr = app.do(t, http.MethodPost, "/goals", url.Values{"name": {"Bike"}, "target_amount": {"200"}, "saved_amount": {"50"}}, cookie, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(t, http.MethodGet, "/goals", nil, cookie, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Bike")
	assert.Contains(t, rr.Body.String(), "In progress (25%)")

	user, err := app.repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	goals, err := app.repo.ListGoals(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	path := "/goals/" + itoa(goals[0].ID)

	rr = app.do(t, http.MethodPost, path, url.Values{"name": {"Bike"}, "target_amount": {"200"}, "saved_amount": {"250"}}, cookie, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"goals:changed"`)

	rr = app.do(t, http.MethodGet, "/goals", nil, cookie, false)
	assert.Contains(t, rr.Body.String(), "Goal completed!")

	rr = app.do(t, http.MethodPost, path+"/delete", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	rr = app.do(t, http.MethodGet, "/goals", nil, cookie, false)
	assert.Contains(t, rr.Body.String(), "No goals to display.")
}

func TestLoginRequiresExactPassword(t *testing.T) {
	app := newTestApp(t, Options{})
	app.signupAndLogin(t, "bob")

	for _, password := range []string{"secret1 ", "  secret1", "secret1\x01", "Secret1"} {
		t.Run(strconv.Quote(password), func(t *testing.T) {
			rr := app.do(t, http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {password}}, nil, false)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}

func TestSignupKeepsPasswordAsTyped(t *testing.T) {
	app := newTestApp(t, Options{})
	rr := app.do(t, http.MethodPost, "/signup", url.Values{
		"username": {"carol"}, "password": {" pass word "}, "confirm_password": {" pass word "},
	}, nil, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(t, http.MethodPost, "/login", url.Values{"username": {"carol"}, "password": {"pass word"}}, nil, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = app.do(t, http.MethodPost, "/login", url.Values{"username": {"carol"}, "password": {" pass word "}}, nil, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")

	rr := app.do(t, http.MethodPost, "/logout", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?flash=loggedout", rr.Header().Get("Location"))

	rr = app.do(t, http.MethodGet, "/", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, Options{LoginRateLimitPerMinute: 2})
	form := url.Values{"username": {"nobody"}, "password": {"whatever"}}

	for i := 0; i < 2; i++ {
		rr := app.do(t, http.MethodPost, "/login", form, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := app.do(t, http.MethodPost, "/login", form, nil, false)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// other routes are only under the global limit
	rr = app.do(t, http.MethodGet, "/login", nil, nil, false)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsCountTransactions(t *testing.T) {
	app := newTestApp(t, Options{})
	cookie := app.signupAndLogin(t, "alice")

	rr := app.do(t, http.MethodPost, "/transactions", url.Values{
		"type": {"Expense"}, "category": {"Gym"}, "amount": {"30"},
	}, cookie, false)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(t, http.MethodGet, "/metrics", nil, nil, false)
	body := rr.Body.String()
	assert.Contains(t, body, "transactions_created_total 1\n")
	assert.Contains(t, body, "logins_total 1\n")
	assert.Contains(t, body, "signups_total 1\n")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
