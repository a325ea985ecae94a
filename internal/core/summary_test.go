package core

import (
	"testing"
)

func TestBuildCategorySummary(t *testing.T) {
	catalog := DefaultCatalog()
	activities := []Activity{
		activity(t, KindExpense, CategoryFood, "10.00", date(2024, 3, 1)),
		activity(t, KindExpense, CategoryFood, "20.00", date(2024, 3, 3)),
		activity(t, KindExpense, CategoryRent, "700.00", date(2024, 3, 2)),
	}

	summary := BuildCategorySummary(catalog, activities, CategoryFood)
	if summary.CategoryCode != CategoryFood || summary.CategoryName != "Alimentação" {
		t.Fatalf("unexpected identity fields: %+v", summary)
	}
	if !summary.TotalValue.Equal(mustDecimal(t, "30.00")) {
		t.Fatalf("total = %s, want 30.00", summary.TotalValue)
	}
	if summary.TransactionCount != 2 {
		t.Fatalf("count = %d, want 2", summary.TransactionCount)
	}
	if !summary.AverageTransactionValue.Equal(mustDecimal(t, "15")) {
		t.Fatalf("average = %s, want 15", summary.AverageTransactionValue)
	}
	if summary.Percentage != 100 {
		t.Fatalf("percentage = %f, want 100", summary.Percentage)
	}
	// Most recent first.
	if len(summary.RecentTransactions) != 2 || !summary.RecentTransactions[0].Date.After(summary.RecentTransactions[1].Date) {
		t.Fatalf("recent transactions not in descending date order: %+v", summary.RecentTransactions)
	}
}

func TestBuildCategorySummaryRecentLimit(t *testing.T) {
	catalog := DefaultCatalog()
	activities := make([]Activity, 0, 8)
	for day := 1; day <= 8; day++ {
		activities = append(activities, activity(t, KindExpense, CategoryFood, "5.00", date(2024, 3, day)))
	}

	summary := BuildCategorySummary(catalog, activities, CategoryFood)
	if len(summary.RecentTransactions) != 5 {
		t.Fatalf("recent = %d, want 5", len(summary.RecentTransactions))
	}
	if got := summary.RecentTransactions[0].Date; !got.Equal(date(2024, 3, 8)) {
		t.Fatalf("newest transaction first, got %v", got)
	}
	if summary.TransactionCount != 8 {
		t.Fatalf("count = %d, want 8", summary.TransactionCount)
	}
}

func TestBuildCategorySummaryEmpty(t *testing.T) {
	catalog := DefaultCatalog()
	activities := []Activity{
		activity(t, KindExpense, CategoryRent, "700.00", date(2024, 3, 2)),
	}

	summary := BuildCategorySummary(catalog, activities, CategoryTravel)
	if !summary.TotalValue.IsZero() || !summary.AverageTransactionValue.IsZero() {
		t.Fatalf("expected zero totals: %+v", summary)
	}
	if summary.Percentage != 0 || summary.TransactionCount != 0 {
		t.Fatalf("expected zeroed summary: %+v", summary)
	}
	if len(summary.RecentTransactions) != 0 {
		t.Fatalf("expected no recent transactions: %+v", summary.RecentTransactions)
	}
}
