package http

import (
	"errors"
	"net/http"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", authPage{basePage: s.newBasePage(r, "Login", "login")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := parseBody(r)
	if err != nil {
		s.renderAuthError(w, r, "login.html", "Login", http.StatusBadRequest, "", err.Error())
		return
	}
	username := p.Get("username")

	session, err := s.accounts.Login(ctx, username, p.GetRaw("password"))
	if errors.Is(err, core.ErrInvalidCredentials) {
		s.appMetrics.failedLogins.Add(1)
		applog.FromContext(ctx).WarnContext(ctx, "Login rejected",
			applog.FieldUsername, username,
			applog.FieldErrorType, applog.ErrorTypeAuth)
		s.renderAuthError(w, r, "login.html", "Login", http.StatusUnauthorized, username, "Invalid username or password.")
		return
	}
	if err != nil {
		s.serverError(w, r, "Login failed", err, applog.OpLogin)
		return
	}

	s.appMetrics.logins.Add(1)
	s.setSessionCookie(w, session)
	redirectAfterPost(w, r, htmx(), "/")
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", authPage{basePage: s.newBasePage(r, "Sign up", "signup")})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := parseBody(r)
	if err != nil {
		s.renderAuthError(w, r, "signup.html", "Sign up", http.StatusBadRequest, "", err.Error())
		return
	}
	username := p.Get("username")

	_, err = s.accounts.Register(ctx, username, p.GetRaw("password"), p.GetRaw("confirm_password"))
	switch {
	case errors.Is(err, core.ErrUsernameTaken):
		s.renderAuthError(w, r, "signup.html", "Sign up", http.StatusConflict, username, "Username already exists.")
		return
	case core.IsValidationError(err):
		s.renderAuthError(w, r, "signup.html", "Sign up", http.StatusUnprocessableEntity, username,
			core.ValidationMessage(err, "Invalid input."))
		return
	case err != nil:
		s.serverError(w, r, "Signup failed", err, applog.OpRegister)
		return
	}

	s.appMetrics.signups.Add(1)
	redirectAfterPost(w, r, htmx(), "/login?flash=registered")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token := sessionToken(r); token != "" {
		if err := s.accounts.Logout(ctx, token); err != nil {
			s.events.LogError(ctx, "Logout failed", err, applog.ErrorTypeDatabase, applog.OpLogout, nil)
		}
	}
	s.clearSessionCookie(w)
	redirectAfterPost(w, r, htmx(), "/login?flash=loggedout")
}

func (s *Server) renderAuthError(w http.ResponseWriter, r *http.Request, name, title string, status int, username, msg string) {
	page := authPage{basePage: s.newBasePage(r, title, ""), Username: username}
	page.Error = msg
	s.render(w, r, status, name, page)
}
