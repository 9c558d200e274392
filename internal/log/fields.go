package log

import "log/slog"

// Attribute keys used across the application.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldPath          = "path"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldUsername      = "username"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldAmountCents   = "amount_cents"
	FieldGoalID        = "goal_id"
)

const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentBudget       = "budget"
	ComponentMirror       = "mirror"
	ComponentHousekeeping = "housekeeping"
	ComponentRateLimit    = "rate_limit"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRegister = "register"
	OpExport   = "export"
	OpRender   = "render"
)

const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeInternal   = "internal_error"
)

// Fields is an ordered attribute list. Each method returns the extended
// list, so a Fields value can be shared as a prefix.
type Fields []slog.Attr

func (f Fields) Add(key string, value any) Fields {
	return append(f[:len(f):len(f)], slog.Any(key, value))
}

func (f Fields) User(userID int64) Fields {
	return f.Add(FieldUserID, userID)
}

// Err records err with its classification and the failed operation.
func (f Fields) Err(err error, errorType, op string) Fields {
	if err != nil {
		f = f.Add(FieldError, err.Error())
	}
	return f.Add(FieldErrorType, errorType).Add(FieldOperation, op)
}

// Transaction identifies a ledger entry.
func (f Fields) Transaction(id int64, txType, category string, amountCents int64, date string) Fields {
	return append(f[:len(f):len(f)],
		slog.Int64(FieldTransactionID, id),
		slog.String("type", txType),
		slog.String("category", category),
		slog.Int64(FieldAmountCents, amountCents),
		slog.String("date", date),
	)
}

func (f Fields) Response(method, path string, status int, durationMs int64, clientIP string) Fields {
	return append(f[:len(f):len(f)],
		slog.String("method", method),
		slog.String(FieldPath, path),
		slog.Int("status_code", status),
		slog.Int64("duration_ms", durationMs),
		slog.String(FieldClientIP, clientIP),
	)
}
