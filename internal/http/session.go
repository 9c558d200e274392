package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"
	"budgetmate/internal/middleware/security"
)

const sessionCookieName = "budgetmate_session"

type userContextKey struct{}

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// userFromContext returns the user resolved by requireUser.
func userFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(core.User)
	return u, ok
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// currentUser resolves the session cookie. A missing or stale session
// returns core.ErrSessionNotFound.
func (s *Server) currentUser(r *http.Request) (core.User, error) {
	return s.accounts.SessionUser(r.Context(), sessionToken(r))
}

// requireUser redirects to /login unless the request carries a live
// session.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.currentUser(r)
		if errors.Is(err, core.ErrSessionNotFound) {
			if sessionToken(r) != "" {
				s.clearSessionCookie(w)
			}
			redirectToLogin(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, "Failed to resolve session", err, applog.OpRead)
			return
		}

		ctx := withUser(r.Context(), user)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		security.NoStore(next).ServeHTTP(w, r.WithContext(ctx))
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		htmx().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session core.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
