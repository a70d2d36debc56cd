package expense

import "time"

// ListFilter is the validated predicate for listing a user's expenses.
// UserID is always set; nil optional fields contribute no clause.
type ListFilter struct {
	UserID   string
	Category *Category
	From     *time.Time // inclusive
	To       *time.Time // inclusive
	Search   *string    // case-insensitive substring on title or description
	Limit    int
	Offset   int
}

// StatsFilter scopes the aggregate queries: owner plus optional date range.
type StatsFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

type TotalSummary struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type CategorySummary struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
	Count    int      `json:"count"`
}

type MonthlySummary struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Stats bundles the three independent aggregates the dashboard renders.
type Stats struct {
	Total      TotalSummary      `json:"totalExpenses"`
	ByCategory []CategorySummary `json:"expensesByCategory"`
	Monthly    []MonthlySummary  `json:"monthlyExpenses"`
}
