package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"

	"github.com/dustin/go-humanize"
)

// templateFuncs are available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": formatMoney,
		"month": formatMonth,
	}
}

// formatMoney renders cents with thousands separators, e.g. "1,234.50".
func formatMoney(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + humanize.Comma(cents/100) + "." + twoDigits(cents%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// formatMonth renders "2026-03" as "March 2026".
func formatMonth(m core.Month) string {
	d, err := core.ParseDate(string(m) + "-01")
	if err != nil {
		return string(m)
	}
	return d.Format("January 2006")
}

// render executes a named template into a buffer first so a failing
// template never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.serverError(w, r, "Failed to render template", err, applog.OpRender)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// serverError logs err and answers 500 with a generic message.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	s.events.LogError(r.Context(), msg, err, applog.ErrorTypeInternal, op, nil)
	errorFragment(http.StatusInternalServerError, "Something went wrong. Please try again.").Write(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
