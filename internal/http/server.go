package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budgetmate/internal/cache"
	"budgetmate/internal/core"
	applog "budgetmate/internal/log"
	"budgetmate/internal/middleware/ratelimit"
	"budgetmate/internal/middleware/security"
	"budgetmate/internal/middleware/trace"
	appweb "budgetmate/web"
)

// Services the handlers depend on. Implemented by the types in
// internal/services.
type (
	AccountService interface {
		Register(ctx context.Context, username, password, confirm string) (core.User, error)
		Login(ctx context.Context, username, password string) (core.Session, error)
		SessionUser(ctx context.Context, token string) (core.User, error)
		Logout(ctx context.Context, token string) error
	}

	BudgetService interface {
		SetBudget(ctx context.Context, userID int64, month core.Month, amount core.Money) error
		Summary(ctx context.Context, userID int64, month core.Month) (core.BudgetSummary, error)
	}

	TransactionService interface {
		Add(ctx context.Context, userID int64, nt core.NewTransaction) (core.Transaction, error)
		List(ctx context.Context, userID int64) ([]core.Transaction, error)
		Delete(ctx context.Context, userID, id int64) error
	}

	GoalService interface {
		Add(ctx context.Context, userID int64, name string, target, saved core.Money) (core.Goal, error)
		List(ctx context.Context, userID int64) ([]core.Goal, error)
		Update(ctx context.Context, userID, id int64, name string, target, saved core.Money) error
		Delete(ctx context.Context, userID, id int64) error
	}

	ReportService interface {
		SummarizeByDate(ctx context.Context, userID int64) ([]core.DateTotal, error)
		SummarizeByCategory(ctx context.Context, userID int64) (map[core.Category]core.Money, error)
		ExportCSV(ctx context.Context, userID int64) ([]byte, error)
		CacheStats() *cache.Stats
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Dependencies groups the collaborators of the server.
type Dependencies struct {
	Accounts     AccountService
	Budgets      BudgetService
	Transactions TransactionService
	Goals        GoalService
	Reports      ReportService
	DB           Pinger
	Logger       *applog.Logger
}

// Options configures the HTTP surface.
type Options struct {
	Addr                    string
	SessionTTL              time.Duration
	CookieSecure            bool
	RateLimitPerMinute      int
	LoginRateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger
	opts      Options

	accounts     AccountService
	budgets      BudgetService
	transactions TransactionService
	goals        GoalService
	reports      ReportService
	db           Pinger

	rateLimiter      *ratelimit.Limiter
	loginLimiter     *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	startedAt           time.Time
	transactionsCreated atomic.Int64
	transactionsDeleted atomic.Int64
	logins              atomic.Int64
	failedLogins        atomic.Int64
	signups             atomic.Int64
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(opts Options, deps Dependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates:        tmpl,
		logger:           logger,
		events:           applog.NewStructuredLogger(logger),
		opts:             opts,
		accounts:         deps.Accounts,
		budgets:          deps.Budgets,
		transactions:     deps.Transactions,
		goals:            deps.Goals,
		reports:          deps.Reports,
		db:               deps.DB,
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		loginLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.LoginRateLimitPerMinute}),
		appMetrics:       &appMetrics{startedAt: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)
	s.traceMiddleware.OnComplete = s.events.LogHTTPEnd

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	static := http.StripPrefix("/static/", http.FileServer(http.FS(appweb.Static())))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireUser(s.handleDashboard))
	mux.HandleFunc("POST /budget", s.requireUser(s.handleSetBudget))

	mux.HandleFunc("GET /transactions", s.requireUser(s.handleTransactions))
	mux.HandleFunc("POST /transactions", s.requireUser(s.handleAddTransaction))
	mux.HandleFunc("POST /transactions/{id}/delete", s.requireUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /reports", s.requireUser(s.handleReports))
	mux.HandleFunc("GET /reports/export.csv", s.requireUser(s.handleExportCSV))

	mux.HandleFunc("GET /goals", s.requireUser(s.handleGoals))
	mux.HandleFunc("POST /goals", s.requireUser(s.handleAddGoal))
	mux.HandleFunc("POST /goals/{id}", s.requireUser(s.handleUpdateGoal))
	mux.HandleFunc("POST /goals/{id}/delete", s.requireUser(s.handleDeleteGoal))
}

// middleware applies, outermost first: trace, request logger, security
// headers, probe detection, global and auth rate limits.
func (s *Server) middleware(next http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentRateLimit)
		errorFragment(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
	}
	isAuthPost := func(r *http.Request) bool {
		return r.Method == http.MethodPost && (r.URL.Path == "/login" || r.URL.Path == "/signup")
	}

	h := next
	h = s.loginLimiter.Middleware(s.securityDetector.ExtractClientIP, isAuthPost, onLimit)(h)
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil, onLimit)(h)
	h = s.securityDetector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(s.logger, trace.RequestIDFromRequest)(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

// Shutdown stops background goroutines and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.loginLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
