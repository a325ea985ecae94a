package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceStatus tags the sign of a balance for display.
type BalanceStatus string

const (
	BalancePositive BalanceStatus = "POSITIVE"
	BalanceNegative BalanceStatus = "NEGATIVE"
	BalanceNeutral  BalanceStatus = "NEUTRAL"
)

// FinancialSummary totals one report period.
//
// MonthlyBalance intentionally mirrors CurrentBalance: the upstream product
// never restricted it to the period, and reports keep that behavior until it
// is clarified.
type FinancialSummary struct {
	TotalRevenues  decimal.Decimal
	TotalExpenses  decimal.Decimal
	CurrentBalance decimal.Decimal
	MonthlyBalance decimal.Decimal
	BalanceStatus  BalanceStatus
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// CategoryDistribution is one category's share within a single kind.
type CategoryDistribution struct {
	CategoryCode     Category
	CategoryName     string
	Emoji            string
	Color            string
	TotalValue       decimal.Decimal
	Percentage       float64
	TransactionCount int
}

// MonthlyEvolution is the revenue/expense/balance total of one calendar month.
type MonthlyEvolution struct {
	Year        int
	Month       int
	Revenues    decimal.Decimal
	Expenses    decimal.Decimal
	Balance     decimal.Decimal
	PeriodLabel string
}

// QuickStats are the at-a-glance numbers for a report period.
type QuickStats struct {
	TotalTransactions    int
	AverageExpense       decimal.Decimal
	AverageRevenue       decimal.Decimal
	TopExpenseCategory   string
	TopRevenueCategory   string
	DaysWithTransactions int
	DailyAverageSpending decimal.Decimal
}

// Report is the full aggregate computed over one activity set and period.
// It is never persisted; every request recomputes it from scratch.
type Report struct {
	FinancialSummary   FinancialSummary
	ExpensesByCategory []CategoryDistribution
	RevenuesByCategory []CategoryDistribution
	MonthlyEvolution   []MonthlyEvolution
	QuickStats         QuickStats
}

// ComputationError signals an invariant break inside aggregation, such as an
// activity whose kind and category disagree. The validator is supposed to
// prevent this upstream, so callers should treat it as a defect, not as a
// user-correctable failure.
type ComputationError struct {
	ActivityID string
	Reason     string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("aggregation invariant violated for activity %s: %s", e.ActivityID, e.Reason)
}

// BuildReport aggregates the activities into a Report. The activities are
// expected to be pre-filtered to one user and confined to the period by the
// caller; the period is used only for summary labels and day-count math.
// An empty activity set produces a zeroed report, never an error.
func BuildReport(catalog Catalog, activities []Activity, period Period) (*Report, error) {
	if err := checkInvariants(catalog, activities); err != nil {
		return nil, err
	}
	return &Report{
		FinancialSummary:   buildFinancialSummary(activities, period),
		ExpensesByCategory: buildCategoryDistribution(catalog, activities, KindExpense),
		RevenuesByCategory: buildCategoryDistribution(catalog, activities, KindRevenue),
		MonthlyEvolution:   buildMonthlyEvolution(activities),
		QuickStats:         buildQuickStats(catalog, activities, period),
	}, nil
}

func checkInvariants(catalog Catalog, activities []Activity) error {
	for _, a := range activities {
		if !a.Kind.Valid() {
			return &ComputationError{ActivityID: a.ID, Reason: fmt.Sprintf("unknown kind %q", a.Kind)}
		}
		if a.Kind == KindRevenue && catalog.IsExpense(a.Category) {
			return &ComputationError{ActivityID: a.ID, Reason: fmt.Sprintf("revenue activity with expense category %q", a.Category)}
		}
		if a.Kind == KindExpense && catalog.IsRevenue(a.Category) {
			return &ComputationError{ActivityID: a.ID, Reason: fmt.Sprintf("expense activity with revenue category %q", a.Category)}
		}
	}
	return nil
}

func buildFinancialSummary(activities []Activity, period Period) FinancialSummary {
	totalRevenues := sumByKind(activities, KindRevenue)
	totalExpenses := sumByKind(activities, KindExpense)
	balance := totalRevenues.Sub(totalExpenses)

	status := BalanceNeutral
	switch balance.Sign() {
	case 1:
		status = BalancePositive
	case -1:
		status = BalanceNegative
	}

	return FinancialSummary{
		TotalRevenues:  totalRevenues,
		TotalExpenses:  totalExpenses,
		CurrentBalance: balance,
		MonthlyBalance: balance,
		BalanceStatus:  status,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
	}
}

func buildCategoryDistribution(catalog Catalog, activities []Activity, kind Kind) []CategoryDistribution {
	filtered := filterByKind(activities, kind)
	if len(filtered) == 0 {
		return []CategoryDistribution{}
	}

	total := decimal.Zero
	for _, a := range filtered {
		total = total.Add(a.Value)
	}

	// Group by category, preserving first-seen order so ties stay stable.
	order := make([]Category, 0)
	sums := make(map[Category]decimal.Decimal)
	counts := make(map[Category]int)
	for _, a := range filtered {
		if _, seen := sums[a.Category]; !seen {
			order = append(order, a.Category)
		}
		sums[a.Category] = sums[a.Category].Add(a.Value)
		counts[a.Category]++
	}

	out := make([]CategoryDistribution, 0, len(order))
	for _, c := range order {
		info, _ := catalog.Lookup(c)
		percentage := 0.0
		if !total.IsZero() {
			percentage = sums[c].Mul(decimal.NewFromInt(100)).Div(total).InexactFloat64()
		}
		out = append(out, CategoryDistribution{
			CategoryCode:     c,
			CategoryName:     catalog.DisplayName(c),
			Emoji:            info.Emoji,
			Color:            info.Color,
			TotalValue:       sums[c],
			Percentage:       percentage,
			TransactionCount: counts[c],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	return out
}

func buildMonthlyEvolution(activities []Activity) []MonthlyEvolution {
	type yearMonth struct {
		year  int
		month int
	}

	buckets := make(map[yearMonth]*MonthlyEvolution)
	for _, a := range activities {
		// Bucket on the activity's own calendar date, not the UTC date,
		// to avoid shifting events across a month boundary.
		y, m, _ := a.Date.Date()
		key := yearMonth{year: y, month: int(m)}
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyEvolution{
				Year:        y,
				Month:       int(m),
				Revenues:    decimal.Zero,
				Expenses:    decimal.Zero,
				PeriodLabel: fmt.Sprintf("%02d/%d", int(m), y),
			}
			buckets[key] = b
		}
		switch a.Kind {
		case KindRevenue:
			b.Revenues = b.Revenues.Add(a.Value)
		case KindExpense:
			b.Expenses = b.Expenses.Add(a.Value)
		}
	}

	out := make([]MonthlyEvolution, 0, len(buckets))
	for _, b := range buckets {
		b.Balance = b.Revenues.Sub(b.Expenses)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func buildQuickStats(catalog Catalog, activities []Activity, period Period) QuickStats {
	if len(activities) == 0 {
		return QuickStats{
			AverageExpense:       decimal.Zero,
			AverageRevenue:       decimal.Zero,
			DailyAverageSpending: decimal.Zero,
		}
	}

	expenses := filterByKind(activities, KindExpense)
	revenues := filterByKind(activities, KindRevenue)

	uniqueDates := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		uniqueDates[a.Date.Format("2006-01-02")] = struct{}{}
	}

	totalExpenses := sumByKind(activities, KindExpense)
	dailyAverage := decimal.Zero
	if days := period.Days(); days > 0 {
		dailyAverage = totalExpenses.Div(decimal.NewFromInt(int64(days)))
	}

	return QuickStats{
		TotalTransactions:    len(activities),
		AverageExpense:       average(expenses),
		AverageRevenue:       average(revenues),
		TopExpenseCategory:   topCategory(catalog, expenses),
		TopRevenueCategory:   topCategory(catalog, revenues),
		DaysWithTransactions: len(uniqueDates),
		DailyAverageSpending: dailyAverage,
	}
}

// topCategory returns the display name of the category with the highest total
// value, or "" for an empty input. Ties resolve to the first-seen category.
func topCategory(catalog Catalog, activities []Activity) string {
	if len(activities) == 0 {
		return ""
	}
	order := make([]Category, 0)
	sums := make(map[Category]decimal.Decimal)
	for _, a := range activities {
		if _, seen := sums[a.Category]; !seen {
			order = append(order, a.Category)
		}
		sums[a.Category] = sums[a.Category].Add(a.Value)
	}
	top := order[0]
	for _, c := range order[1:] {
		if sums[c].GreaterThan(sums[top]) {
			top = c
		}
	}
	return catalog.DisplayName(top)
}

func average(activities []Activity) decimal.Decimal {
	if len(activities) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, a := range activities {
		total = total.Add(a.Value)
	}
	return total.Div(decimal.NewFromInt(int64(len(activities))))
}

func sumByKind(activities []Activity, kind Kind) decimal.Decimal {
	total := decimal.Zero
	for _, a := range activities {
		if a.Kind == kind {
			total = total.Add(a.Value)
		}
	}
	return total
}

func filterByKind(activities []Activity, kind Kind) []Activity {
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// FilterByCategories keeps only activities whose category is in the set.
// An empty set keeps everything.
func FilterByCategories(activities []Activity, categories []Category) []Activity {
	if len(categories) == 0 {
		return activities
	}
	allowed := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if _, ok := allowed[a.Category]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FilterByKind keeps only activities of the given kind.
func FilterByKind(activities []Activity, kind Kind) []Activity {
	return filterByKind(activities, kind)
}

func sortCategoryBalances(balances []CategoryBalance) {
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Category < balances[j].Category
	})
}
