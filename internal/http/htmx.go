// Package http serves the Budget Mate web UI: server-rendered pages
// enhanced with htmx.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client events raised through HX-Trigger. app.js listens for them.
const (
	eventTransactionCreated = "transaction:created"
	eventTransactionDeleted = "transaction:deleted"
	eventBudgetUpdated      = "budget:updated"
	eventGoalsChanged       = "goals:changed"
	eventFormReset          = "form:reset"
	eventNotification       = "show-notification"
)

const notificationMillis = 3000

// hxResponse accumulates the status, events and body of an htmx reply.
type hxResponse struct {
	status   int
	redirect string
	events   map[string]any
	html     string
}

func htmx() *hxResponse {
	return &hxResponse{status: http.StatusOK, events: map[string]any{}}
}

func (h *hxResponse) Status(code int) *hxResponse {
	h.status = code
	return h
}

// Trigger raises a client event carrying payload.
func (h *hxResponse) Trigger(event string, payload any) *hxResponse {
	h.events[event] = payload
	return h
}

func (h *hxResponse) TransactionCreated(id int64, month string) *hxResponse {
	return h.Trigger(eventTransactionCreated, map[string]any{"id": id, "month": month})
}

func (h *hxResponse) TransactionDeleted(id int64) *hxResponse {
	return h.Trigger(eventTransactionDeleted, map[string]any{"id": id})
}

func (h *hxResponse) BudgetUpdated(month string) *hxResponse {
	return h.Trigger(eventBudgetUpdated, map[string]any{"month": month})
}

func (h *hxResponse) GoalsChanged() *hxResponse {
	return h.Trigger(eventGoalsChanged, struct{}{})
}

func (h *hxResponse) ResetForm() *hxResponse {
	return h.Trigger(eventFormReset, struct{}{})
}

// Notify shows a success toast.
func (h *hxResponse) Notify(message string) *hxResponse {
	return h.Trigger(eventNotification, map[string]any{
		"type":     "success",
		"message":  message,
		"duration": notificationMillis,
	})
}

// Redirect makes htmx navigate the whole page to location.
func (h *hxResponse) Redirect(location string) *hxResponse {
	h.redirect = location
	return h
}

func (h *hxResponse) Write(w http.ResponseWriter) {
	hdr := w.Header()
	if h.redirect != "" {
		hdr.Set("HX-Redirect", h.redirect)
	}
	if len(h.events) > 0 {
		if b, err := json.Marshal(h.events); err == nil {
			hdr.Set("HX-Trigger", string(b))
		}
	}
	if h.html != "" {
		hdr.Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(h.status)
	if h.html != "" {
		_, _ = w.Write([]byte(h.html))
	}
}

// errorFragment is the alert swapped into a form by app.js.
func errorFragment(status int, message string) *hxResponse {
	h := htmx().Status(status)
	h.html = `<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`
	return h
}
