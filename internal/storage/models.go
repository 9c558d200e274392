package storage

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    int64
}

type Budget struct {
	ID          int64
	UserID      int64
	Month       string
	AmountCents int64
}

type Transaction struct {
	ID          int64
	UserID      int64
	Type        string
	Category    string
	AmountCents int64
	Date        string
	Note        string
	CreatedAt   int64
}

type Goal struct {
	ID                int64
	UserID            int64
	Name              string
	TargetAmountCents int64
	SavedAmountCents  int64
}
