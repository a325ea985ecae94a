package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const recentTransactionLimit = 5

// RecentTransaction is one of the latest activities within a category summary.
type RecentTransaction struct {
	ID          string
	Description string
	Value       decimal.Decimal
	Date        time.Time
}

// CategorySummary is the single-category deep dive: totals, average and the
// most recent transactions for one catalog code.
type CategorySummary struct {
	CategoryCode            Category
	CategoryName            string
	Emoji                   string
	Color                   string
	TotalValue              decimal.Decimal
	Percentage              float64
	TransactionCount        int
	AverageTransactionValue decimal.Decimal
	RecentTransactions      []RecentTransaction
}

// BuildCategorySummary filters the activities to one category and summarizes
// them. A single-category view is 100% of itself, so Percentage is fixed at
// 100 whenever the category has activities. An empty result is all zeros,
// not an error.
func BuildCategorySummary(catalog Catalog, activities []Activity, category Category) CategorySummary {
	info, _ := catalog.Lookup(category)
	summary := CategorySummary{
		CategoryCode:            category,
		CategoryName:            catalog.DisplayName(category),
		Emoji:                   info.Emoji,
		Color:                   info.Color,
		TotalValue:              decimal.Zero,
		AverageTransactionValue: decimal.Zero,
		RecentTransactions:      []RecentTransaction{},
	}

	matched := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if a.Category == category {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		return summary
	}

	total := decimal.Zero
	for _, a := range matched {
		total = total.Add(a.Value)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})
	limit := recentTransactionLimit
	if len(matched) < limit {
		limit = len(matched)
	}
	recent := make([]RecentTransaction, 0, limit)
	for _, a := range matched[:limit] {
		recent = append(recent, RecentTransaction{
			ID:          a.ID,
			Description: a.Description,
			Value:       a.Value,
			Date:        a.Date,
		})
	}

	summary.TotalValue = total
	summary.Percentage = 100
	summary.TransactionCount = len(matched)
	summary.AverageTransactionValue = total.Div(decimal.NewFromInt(int64(len(matched))))
	summary.RecentTransactions = recent
	return summary
}
