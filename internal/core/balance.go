package core

import "github.com/shopspring/decimal"

// Balance returns the signed sum of the activities: revenue values count
// positive, expense values negative. The result is exact; ordering of the
// input does not matter. An empty input yields zero.
func Balance(activities []Activity) decimal.Decimal {
	total := decimal.Zero
	for _, a := range activities {
		switch a.Kind {
		case KindRevenue:
			total = total.Add(a.Value)
		case KindExpense:
			total = total.Sub(a.Value)
		}
	}
	return total
}

// BalanceByCategory returns the signed per-category totals over the
// activities, one entry per category, sorted by category code so the output
// is reproducible.
func BalanceByCategory(activities []Activity) []CategoryBalance {
	totals := make(map[Category]decimal.Decimal)
	order := make([]Category, 0)
	for _, a := range activities {
		signed := a.Value
		if a.Kind == KindExpense {
			signed = signed.Neg()
		}
		if _, seen := totals[a.Category]; !seen {
			order = append(order, a.Category)
		}
		totals[a.Category] = totals[a.Category].Add(signed)
	}
	out := make([]CategoryBalance, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryBalance{Category: c, Balance: totals[c]})
	}
	sortCategoryBalances(out)
	return out
}

// CategoryBalance is the signed total of one category across both kinds.
type CategoryBalance struct {
	Category Category
	Balance  decimal.Decimal
}
