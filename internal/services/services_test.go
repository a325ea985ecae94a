package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/auth"
	"fincontrol/internal/core"
	"fincontrol/internal/storage"
)

type fakeRepo struct {
	users      map[string]storage.User
	activities map[string]core.Activity
	order      []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[string]storage.User),
		activities: make(map[string]core.Activity),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, u storage.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return storage.ErrEmailTaken
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (storage.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id string) (storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) CreateActivity(_ context.Context, a core.Activity) error {
	f.activities[a.ID] = a
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeRepo) GetActivity(_ context.Context, id string) (core.Activity, error) {
	a, ok := f.activities[id]
	if !ok {
		return core.Activity{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) UpdateActivity(_ context.Context, a core.Activity) error {
	if _, ok := f.activities[a.ID]; !ok {
		return storage.ErrNotFound
	}
	f.activities[a.ID] = a
	return nil
}

func (f *fakeRepo) DeleteActivity(_ context.Context, id string) error {
	if _, ok := f.activities[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.activities, id)
	return nil
}

func (f *fakeRepo) list(userID string, keep func(core.Activity) bool) []core.Activity {
	var out []core.Activity
	for _, id := range f.order {
		a, ok := f.activities[id]
		if !ok || a.OwnerID != userID {
			continue
		}
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeRepo) ListActivities(_ context.Context, userID string) ([]core.Activity, error) {
	return f.list(userID, nil), nil
}

func (f *fakeRepo) ListActivitiesByKind(_ context.Context, userID string, kind core.Kind) ([]core.Activity, error) {
	return f.list(userID, func(a core.Activity) bool { return a.Kind == kind }), nil
}

func (f *fakeRepo) ListActivitiesByCategory(_ context.Context, userID string, category core.Category) ([]core.Activity, error) {
	return f.list(userID, func(a core.Activity) bool { return a.Category == category }), nil
}

func (f *fakeRepo) ListActivitiesByCategoryAndKind(_ context.Context, userID string, category core.Category, kind core.Kind) ([]core.Activity, error) {
	return f.list(userID, func(a core.Activity) bool { return a.Category == category && a.Kind == kind }), nil
}

func (f *fakeRepo) ListActivitiesByDateRange(_ context.Context, userID string, start, end time.Time) ([]core.Activity, error) {
	return f.list(userID, func(a core.Activity) bool {
		return !a.Date.Before(start) && !a.Date.After(end)
	}), nil
}

func (f *fakeRepo) ListActivitiesByCategoryAndDateRange(_ context.Context, userID string, category core.Category, start, end time.Time) ([]core.Activity, error) {
	return f.list(userID, func(a core.Activity) bool {
		return a.Category == category && !a.Date.Before(start) && !a.Date.After(end)
	}), nil
}

type fakePublisher struct {
	published []string // "<op>:<id>"
	fail      bool
}

func (p *fakePublisher) PublishActivityMirror(_ context.Context, activityID, op string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, op+":"+activityID)
	return nil
}

// downUserRepo simulates a storage outage on every call.
type downUserRepo struct{}

func (downUserRepo) CreateUser(context.Context, storage.User) error {
	return errors.New("database is down")
}

func (downUserRepo) GetUserByEmail(context.Context, string) (storage.User, error) {
	return storage.User{}, errors.New("database is down")
}

func (downUserRepo) GetUserByID(context.Context, string) (storage.User, error) {
	return storage.User{}, errors.New("database is down")
}

func seedUser(t *testing.T, repo *fakeRepo, id string) {
	t.Helper()
	repo.users[id] = storage.User{ID: id, Email: id + "@example.com", Name: "Test"}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newActivityService(repo *fakeRepo, pub MirrorPublisher) *ActivityService {
	svc := NewActivityService(core.DefaultCatalog(), repo, pub)
	svc.now = fixedClock(testNow)
	return svc
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	repo := newFakeRepo()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := NewUserService(repo, tokens, 4)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ana", "Ana@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	token, logged, err := svc.Login(ctx, "ana@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("logged user = %q, want %q", logged.ID, user.ID)
	}
	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user = %q, want %q", claims.UserID, user.ID)
	}
}

func TestUserServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo, auth.NewTokenService("s", time.Hour), 4)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Ben", "ana@example.com", "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceLoginFailures(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo, auth.NewTokenService("s", time.Hour), 4)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ana", "ana@example.com", "right"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "right"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(ctx, "", "x@example.com", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestActivityServiceCreatePublishesMirror(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newActivityService(repo, pub)
	ctx := context.Background()

	a, err := svc.CreateActivity(ctx, "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "groceries run",
		Value:       dec(t, "54.30"),
		Kind:        core.KindExpense,
		Category:    core.CategoryGroceries,
	})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated ID")
	}
	if len(pub.published) != 1 || pub.published[0] != "upsert:"+a.ID {
		t.Fatalf("unexpected publishes: %v", pub.published)
	}
}

func TestActivityServiceCreateRejectsInvalid(t *testing.T) {
	svc := newActivityService(newFakeRepo(), &fakePublisher{})

	_, err := svc.CreateActivity(context.Background(), "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "ab",
		Value:       dec(t, "10.00"),
		Kind:        core.KindExpense,
		Category:    core.CategoryFood,
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestActivityServiceBrokerFailureDoesNotFailWrite(t *testing.T) {
	repo := newFakeRepo()
	svc := newActivityService(repo, &fakePublisher{fail: true})

	a, err := svc.CreateActivity(context.Background(), "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "lunch out",
		Value:       dec(t, "25.00"),
		Kind:        core.KindExpense,
		Category:    core.CategoryFood,
	})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if _, err := repo.GetActivity(context.Background(), a.ID); err != nil {
		t.Fatalf("activity not saved: %v", err)
	}
}

func TestActivityServiceOwnership(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newActivityService(repo, pub)
	ctx := context.Background()

	a, err := svc.CreateActivity(ctx, "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "lunch out",
		Value:       dec(t, "25.00"),
		Kind:        core.KindExpense,
		Category:    core.CategoryFood,
	})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}

	var nferr *NotFoundError
	if _, err := svc.GetActivity(ctx, "user-2", a.ID); !errors.As(err, &nferr) {
		t.Fatalf("foreign get: expected NotFoundError, got %v", err)
	}
	if err := svc.DeleteActivity(ctx, "user-2", a.ID); !errors.As(err, &nferr) {
		t.Fatalf("foreign delete: expected NotFoundError, got %v", err)
	}
	if _, err := svc.UpdateActivity(ctx, "user-2", a.ID, ActivityInput{}); !errors.As(err, &nferr) {
		t.Fatalf("foreign update: expected NotFoundError, got %v", err)
	}

	if err := svc.DeleteActivity(ctx, "user-1", a.ID); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	if pub.published[len(pub.published)-1] != "delete:"+a.ID {
		t.Fatalf("expected delete publish, got %v", pub.published)
	}
}

func TestActivityServiceUpdateRevalidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newActivityService(repo, &fakePublisher{})
	ctx := context.Background()

	a, err := svc.CreateActivity(ctx, "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "lunch out",
		Value:       dec(t, "25.00"),
		Kind:        core.KindExpense,
		Category:    core.CategoryFood,
	})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}

	updated, err := svc.UpdateActivity(ctx, "user-1", a.ID, ActivityInput{
		Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Description: "team lunch",
		Value:       dec(t, "48.00"),
		Kind:        core.KindExpense,
		Category:    core.CategoryFood,
	})
	if err != nil {
		t.Fatalf("UpdateActivity: %v", err)
	}
	if updated.ID != a.ID || updated.OwnerID != "user-1" {
		t.Fatalf("identity changed on update: %+v", updated)
	}
	if updated.Description != "team lunch" {
		t.Fatalf("update not applied: %+v", updated)
	}

	_, err = svc.UpdateActivity(ctx, "user-1", a.ID, ActivityInput{
		Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Description: "team lunch",
		Value:       dec(t, "48.00"),
		Kind:        core.KindRevenue,
		Category:    core.CategoryFood,
	})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for kind/category mismatch, got %v", err)
	}
}

func TestActivityServiceListDispatch(t *testing.T) {
	repo := newFakeRepo()
	svc := newActivityService(repo, &fakePublisher{})
	ctx := context.Background()

	inputs := []ActivityInput{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "lunch out", Value: dec(t, "25.00"), Kind: core.KindExpense, Category: core.CategoryFood},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Description: "march rent", Value: dec(t, "700.00"), Kind: core.KindExpense, Category: core.CategoryRent},
		{Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Description: "march salary", Value: dec(t, "2000.00"), Kind: core.KindRevenue, Category: core.CategorySalary},
	}
	for _, in := range inputs {
		if _, err := svc.CreateActivity(ctx, "user-1", in); err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	all, err := svc.ListActivities(ctx, "user-1", nil, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("list all = %d (%v), want 3", len(all), err)
	}

	food := core.CategoryFood
	byCat, err := svc.ListActivities(ctx, "user-1", &food, nil)
	if err != nil || len(byCat) != 1 {
		t.Fatalf("list by category = %d (%v), want 1", len(byCat), err)
	}

	expense := core.KindExpense
	byKind, err := svc.ListActivities(ctx, "user-1", nil, &expense)
	if err != nil || len(byKind) != 2 {
		t.Fatalf("list by kind = %d (%v), want 2", len(byKind), err)
	}

	both, err := svc.ListActivities(ctx, "user-1", &food, &expense)
	if err != nil || len(both) != 1 {
		t.Fatalf("list by category and kind = %d (%v), want 1", len(both), err)
	}

	balance, err := svc.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.Equal(dec(t, "1275.00")) {
		t.Fatalf("balance = %s, want 1275.00", balance)
	}

	byCategory, err := svc.BalanceByCategory(ctx, "user-1")
	if err != nil {
		t.Fatalf("BalanceByCategory: %v", err)
	}
	if len(byCategory) != 3 {
		t.Fatalf("expected 3 category balances, got %d", len(byCategory))
	}
}

func TestDashboardServiceReport(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "user-1")
	actSvc := newActivityService(repo, &fakePublisher{})
	dashSvc := NewDashboardService(core.DefaultCatalog(), repo, repo)
	ctx := context.Background()

	inputs := []ActivityInput{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "march salary", Value: dec(t, "1000.00"), Kind: core.KindRevenue, Category: core.CategorySalary},
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Description: "groceries run", Value: dec(t, "300.00"), Kind: core.KindExpense, Category: core.CategoryFood},
		// Outside the current month
		{Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Description: "old expense", Value: dec(t, "500.00"), Kind: core.KindExpense, Category: core.CategoryFood},
	}
	for _, in := range inputs {
		if _, err := actSvc.CreateActivity(ctx, "user-1", in); err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	report, err := dashSvc.GetReport(ctx, "user-1", core.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if !report.FinancialSummary.CurrentBalance.Equal(dec(t, "700.00")) {
		t.Fatalf("balance = %s, want 700.00", report.FinancialSummary.CurrentBalance)
	}
	if report.FinancialSummary.BalanceStatus != core.BalancePositive {
		t.Fatalf("status = %s, want POSITIVE", report.FinancialSummary.BalanceStatus)
	}
}

func TestDashboardServiceUnknownUser(t *testing.T) {
	dashSvc := NewDashboardService(core.DefaultCatalog(), newFakeRepo(), newFakeRepo())

	var nferr *NotFoundError
	if _, err := dashSvc.GetReport(context.Background(), "ghost", core.Filter{}); !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := dashSvc.GetCategorySummary(context.Background(), "ghost", core.CategoryFood, core.Filter{}); !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDashboardServiceCategorySummary(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "user-1")
	actSvc := newActivityService(repo, &fakePublisher{})
	dashSvc := NewDashboardService(core.DefaultCatalog(), repo, repo)
	ctx := context.Background()

	for _, in := range []ActivityInput{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "lunch out", Value: dec(t, "20.00"), Kind: core.KindExpense, Category: core.CategoryFood},
		{Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Description: "dinner out", Value: dec(t, "40.00"), Kind: core.KindExpense, Category: core.CategoryFood},
	} {
		if _, err := actSvc.CreateActivity(ctx, "user-1", in); err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	summary, err := dashSvc.GetCategorySummary(ctx, "user-1", core.CategoryFood, core.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("GetCategorySummary: %v", err)
	}
	if !summary.TotalValue.Equal(dec(t, "60.00")) || summary.TransactionCount != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestExportServiceCSV(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "user-1")
	actSvc := newActivityService(repo, &fakePublisher{})
	exportSvc := NewExportService(repo, repo)
	ctx := context.Background()

	if _, err := actSvc.CreateActivity(ctx, "user-1", ActivityInput{
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "groceries run",
		Value:       dec(t, "54.30"),
		Kind:        core.KindExpense,
		Category:    core.CategoryGroceries,
	}); err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	data, err := exportSvc.ExportCSV(ctx, "user-1", core.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one record, got %d lines", len(lines))
	}
	if lines[0] != "Descrição;Tipo;Quantia;Data e Hora" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "groceries run;EXPENSE;54.30;05/03/2024" {
		t.Fatalf("unexpected record: %q", lines[1])
	}

	var nferr *NotFoundError
	if _, err := exportSvc.ExportCSV(ctx, "ghost", core.Filter{}); !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestExportServiceStorageOutageIsNotNotFound(t *testing.T) {
	exportSvc := NewExportService(downUserRepo{}, newFakeRepo())

	_, err := exportSvc.ExportCSV(context.Background(), "user-1", core.Filter{})
	if err == nil {
		t.Fatal("expected error from failing user repo")
	}
	var nferr *NotFoundError
	if errors.As(err, &nferr) {
		t.Fatalf("storage outage reported as NotFoundError: %v", err)
	}
}
