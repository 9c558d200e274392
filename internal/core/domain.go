package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	MinPasswordLength = 6
	MaxNoteLength     = 200
	MaxGoalNameLength = 100
)

type (
	TransactionType string

	Category string

	// Month is a calendar month key in YYYY-MM form.
	Month string

	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Session is a server-side login session. Token is only populated
	// right after login; storage keeps a hash of it.
	Session struct {
		Token     string
		UserID    int64
		CreatedAt time.Time
		ExpiresAt time.Time
	}

	Budget struct {
		ID     int64
		UserID int64
		Month  Month
		Amount Money
	}

	Transaction struct {
		ID       int64
		UserID   int64
		Type     TransactionType
		Category Category
		Amount   Money
		Date     Date
		Note     string
	}

	// LedgerEntry is a transaction together with its owner's username.
	LedgerEntry struct {
		Transaction
		Username string
	}

	// NewTransaction carries the user-supplied fields of a transaction.
	NewTransaction struct {
		Type     TransactionType
		Category Category
		Amount   Money
		Date     Date
		Note     string
	}

	Goal struct {
		ID     int64
		UserID int64
		Name   string
		Target Money
		Saved  Money
	}
)

// Categories is the closed list offered by the transaction form.
var Categories = []Category{
	"Salary", "Rent", "Food", "Transportation", "Fuel", "Groceries", "Utilities",
	"Entertainment", "Healthcare", "Clothing", "Education", "Trip", "Gym", "Other",
}

var TransactionTypes = []TransactionType{Income, Expense}

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotFound           = errors.New("not found")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (c Category) Validate() error {
	for _, known := range Categories {
		if c == known {
			return nil
		}
	}
	return ErrInvalidCategory
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the month the date falls in.
func (d Date) MonthKey() Month {
	return Month(d.Format(MonthLayout))
}

// CurrentMonth returns the month key for t.
func CurrentMonth(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

// ParseMonth validates a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

func (m Month) Validate() error {
	_, err := ParseMonth(string(m))
	return err
}

func (m Month) String() string {
	return string(m)
}

// ValidateCredentials checks signup input before any storage call.
func ValidateCredentials(username, password, confirm string) error {
	if !usernamePattern.MatchString(username) {
		return NewValidationError("username", "Username must be 3-32 letters, digits, '_', '.' or '-'.")
	}
	if password != confirm {
		return NewValidationError("confirm_password", "Passwords do not match. Please try again.")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return NewValidationError("password", "Password should be at least 6 characters long.")
	}
	return nil
}

func (t NewTransaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return NewValidationError("type", "Type must be Income or Expense.")
	}
	if err := t.Category.Validate(); err != nil {
		return NewValidationError("category", "Unknown category.")
	}
	if err := t.Amount.Validate(); err != nil {
		return NewValidationError("amount", "Amount must be zero or more.")
	}
	if err := t.Date.Validate(); err != nil {
		return NewValidationError("date", "Date is required.")
	}
	if utf8.RuneCountInString(t.Note) > MaxNoteLength {
		return NewValidationError("note", "Note too long (max 200 characters).")
	}
	return nil
}

func (g Goal) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return NewValidationError("name", "Goal name is required.")
	}
	if utf8.RuneCountInString(name) > MaxGoalNameLength {
		return NewValidationError("name", "Goal name too long (max 100 characters).")
	}
	if err := g.Target.Validate(); err != nil {
		return NewValidationError("target_amount", "Target amount must be zero or more.")
	}
	if err := g.Saved.Validate(); err != nil {
		return NewValidationError("saved_amount", "Saved amount must be zero or more.")
	}
	return nil
}

// Progress is saved/target capped at 1. A zero target reports 0.
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	p := float64(g.Saved.Cents) / float64(g.Target.Cents)
	if p > 1 {
		return 1
	}
	return p
}

func (g Goal) Completed() bool {
	return g.Progress() >= 1
}

// Percent returns Progress as a whole percentage, rounded down so an
// unfinished goal never shows 100.
func (g Goal) Percent() int {
	switch {
	case g.Target.Cents <= 0:
		return 0
	case g.Saved.Cents >= g.Target.Cents:
		return 100
	}
	return int(g.Saved.Cents * 100 / g.Target.Cents)
}
