package core

import (
	"testing"
	"time"
)

func activity(t *testing.T, kind Kind, category Category, value string, day time.Time) Activity {
	t.Helper()
	return Activity{
		ID:       string(category) + "-" + value,
		Date:     day,
		Kind:     kind,
		Category: category,
		Value:    mustDecimal(t, value),
		OwnerID:  "user-1",
	}
}

func TestBalance(t *testing.T) {
	day := date(2024, 3, 1)
	activities := []Activity{
		activity(t, KindRevenue, CategorySalary, "1000.00", day),
		activity(t, KindExpense, CategoryFood, "300.00", day),
		activity(t, KindExpense, CategoryRent, "50.00", date(2024, 4, 1)),
	}
	if got := Balance(activities); !got.Equal(mustDecimal(t, "650.00")) {
		t.Fatalf("balance = %s, want 650.00", got)
	}
}

func TestBalanceEmpty(t *testing.T) {
	if got := Balance(nil); !got.IsZero() {
		t.Fatalf("balance of empty set = %s, want 0", got)
	}
}

func TestBalanceOrderIndependent(t *testing.T) {
	day := date(2024, 3, 1)
	forward := []Activity{
		activity(t, KindRevenue, CategorySalary, "10.10", day),
		activity(t, KindExpense, CategoryFood, "0.01", day),
		activity(t, KindRevenue, CategoryFreelance, "99.99", day),
	}
	backward := []Activity{forward[2], forward[1], forward[0]}
	if !Balance(forward).Equal(Balance(backward)) {
		t.Fatal("balance must not depend on input order")
	}
}

func TestBalanceExactOverManyActivities(t *testing.T) {
	// 0.10 added a thousand times must be exactly 100.00; binary floats drift here.
	day := date(2024, 3, 1)
	activities := make([]Activity, 0, 1000)
	for i := 0; i < 1000; i++ {
		activities = append(activities, activity(t, KindRevenue, CategorySalary, "0.10", day))
	}
	if got := Balance(activities); !got.Equal(mustDecimal(t, "100.00")) {
		t.Fatalf("balance = %s, want exactly 100.00", got)
	}
}

func TestBalanceByCategory(t *testing.T) {
	day := date(2024, 3, 1)
	activities := []Activity{
		activity(t, KindExpense, CategoryFood, "30.00", day),
		activity(t, KindRevenue, CategorySalary, "1000.00", day),
		activity(t, KindExpense, CategoryFood, "20.00", day),
	}

	got := BalanceByCategory(activities)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	// Sorted by category code: FOOD before SALARY.
	if got[0].Category != CategoryFood || !got[0].Balance.Equal(mustDecimal(t, "-50.00")) {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Category != CategorySalary || !got[1].Balance.Equal(mustDecimal(t, "1000.00")) {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}
