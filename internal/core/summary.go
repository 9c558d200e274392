package core

import "sort"

// BudgetStatus classifies spending against the month budget.
type BudgetStatus string

const (
	BudgetOK   BudgetStatus = "ok"
	BudgetNear BudgetStatus = "near"
	BudgetOver BudgetStatus = "over"
)

// BudgetSummary compares a month budget with recorded spending.
type BudgetSummary struct {
	Month     Month
	Budget    Money
	Spent     Money
	Remaining Money
	Status    BudgetStatus
}

// DateTotal is the expense total of a single day.
type DateTotal struct {
	Date  Date
	Total Money
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// NewBudgetSummary derives remaining and status. Spending within 10% of a
// positive budget is "near"; nothing remaining is "over".
func NewBudgetSummary(month Month, budget, spent Money) BudgetSummary {
	s := BudgetSummary{
		Month:     month,
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
		Status:    BudgetOK,
	}
	switch {
	case s.Remaining.Cents <= 0:
		s.Status = BudgetOver
	case budget.Cents > 0 && spent.Cents*10 >= budget.Cents*9:
		s.Status = BudgetNear
	}
	return s
}

// TotalExpenses sums the Expense transactions.
func TotalExpenses(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		if t.Type == Expense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// SummarizeByDate groups expenses by day, ascending.
func SummarizeByDate(txs []Transaction) []DateTotal {
	byDay := make(map[string]*DateTotal)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		key := t.Date.String()
		if dt, ok := byDay[key]; ok {
			dt.Total = dt.Total.Add(t.Amount)
			continue
		}
		byDay[key] = &DateTotal{Date: t.Date, Total: t.Amount}
	}

	out := make([]DateTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// SummarizeByCategory sums expenses per category.
func SummarizeByCategory(txs []Transaction) map[Category]Money {
	out := make(map[Category]Money)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// SortedCategoryAmounts orders a category breakdown by amount, largest first,
// breaking ties by name.
func SortedCategoryAmounts(m map[Category]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for c, a := range m {
		out = append(out, CategoryAmount{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}
