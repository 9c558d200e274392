package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetmate/internal/core"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a form-encoded or JSON body. htmx posts forms;
// scripted clients may post JSON with the same field names.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, capped at maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
	}
	return p
}

// Parse decodes the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.GetRaw(key))
}

// GetRaw returns key exactly as submitted. Credentials are read this way.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody parses r's body, mapping decode failures to a validation error.
func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, core.NewValidationError("", "Invalid request format.")
	}
	return p, nil
}

// ParseTransactionInput reads the add-transaction form. An empty date
// defaults to today.
func ParseTransactionInput(p *RequestBodyParser, now time.Time) (core.NewTransaction, error) {
	nt := core.NewTransaction{
		Type:     core.TransactionType(p.Get("type")),
		Category: core.Category(p.Get("category")),
		Note:     p.Get("note"),
	}

	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		return nt, core.NewValidationError("amount", "Please enter a valid amount.")
	}
	nt.Amount = amount

	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return nt, core.NewValidationError("date", "Please enter a valid date (YYYY-MM-DD).")
		}
		nt.Date = d
	} else {
		nt.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	return nt, nt.Validate()
}

// GoalInput is the name/target/saved triple of the goal forms.
type GoalInput struct {
	Name   string
	Target core.Money
	Saved  core.Money
}

// ParseGoalInput reads a goal form. A blank saved amount means zero.
func ParseGoalInput(p *RequestBodyParser) (GoalInput, error) {
	in := GoalInput{Name: p.Get("name")}

	target, err := core.ParseMoney(p.Get("target_amount"))
	if err != nil {
		return in, core.NewValidationError("target_amount", "Please enter a valid target amount.")
	}
	in.Target = target

	if v := p.Get("saved_amount"); v != "" {
		saved, err := core.ParseMoney(v)
		if err != nil {
			return in, core.NewValidationError("saved_amount", "Please enter a valid saved amount.")
		}
		in.Saved = saved
	}

	g := core.Goal{Name: in.Name, Target: in.Target, Saved: in.Saved}
	return in, g.Validate()
}

// parseMonthParam returns the month in ?month=YYYY-MM, or the current one
// when absent.
func parseMonthParam(r *http.Request, now time.Time) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.CurrentMonth(now), nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return "", core.NewValidationError("month", "Month must be in YYYY-MM form.")
	}
	return m, nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError("id", "Invalid id.")
	}
	return id, nil
}
