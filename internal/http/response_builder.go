package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"fincontrol/internal/core"
	applog "fincontrol/internal/log"
	"fincontrol/internal/services"
	"fincontrol/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps service and domain errors onto HTTP statuses. Validation
// failures carry the violated rule so clients can highlight the right field.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *core.ValidationError
		notFoundErr    *services.NotFoundError
		computationErr *core.ComputationError
		badRequestErr  *badRequestError
	)

	switch {
	case errors.As(err, &badRequestErr):
		writeErrorMessage(w, http.StatusBadRequest, badRequestErr.Error())
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: validationErr.Message,
			Rule:  string(validationErr.Rule),
		})
	case errors.As(err, &notFoundErr):
		writeErrorMessage(w, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, services.ErrEmailTaken):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeErrorMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrMissingFields):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &computationErr):
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Report computation failed",
			"path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "report computation failed")
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u storage.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type activityResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Kind        string          `json:"kind"`
	Category    string          `json:"category"`
}

func toActivityResponse(a core.Activity) activityResponse {
	return activityResponse{
		ID:          a.ID,
		Date:        a.Date.Format(dateLayout),
		Description: a.Description,
		Value:       a.Value,
		Kind:        string(a.Kind),
		Category:    string(a.Category),
	}
}

func toActivityResponses(activities []core.Activity) []activityResponse {
	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivityResponse(a))
	}
	return out
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type categoryBalanceResponse struct {
	Category string          `json:"category"`
	Balance  decimal.Decimal `json:"balance"`
}

func toCategoryBalanceResponses(balances []core.CategoryBalance) []categoryBalanceResponse {
	out := make([]categoryBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, categoryBalanceResponse{
			Category: string(b.Category),
			Balance:  b.Balance,
		})
	}
	return out
}

type categoryResponse struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func toCategoryResponse(info core.CategoryInfo) categoryResponse {
	kind := core.KindExpense
	if info.Revenue {
		kind = core.KindRevenue
	}
	return categoryResponse{
		Code:        string(info.Code),
		DisplayName: info.DisplayName,
		Emoji:       info.Emoji,
		Color:       info.Color,
		Description: info.Description,
		Kind:        string(kind),
	}
}

type financialSummaryResponse struct {
	TotalRevenues  decimal.Decimal `json:"total_revenues"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	MonthlyBalance decimal.Decimal `json:"monthly_balance"`
	BalanceStatus  string          `json:"balance_status"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
}

type categoryDistributionResponse struct {
	CategoryCode     string          `json:"category_code"`
	CategoryName     string          `json:"category_name"`
	Emoji            string          `json:"emoji"`
	Color            string          `json:"color"`
	TotalValue       decimal.Decimal `json:"total_value"`
	Percentage       float64         `json:"percentage"`
	TransactionCount int             `json:"transaction_count"`
}

type monthlyEvolutionResponse struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Revenues    decimal.Decimal `json:"revenues"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
	PeriodLabel string          `json:"period_label"`
}

type quickStatsResponse struct {
	TotalTransactions    int             `json:"total_transactions"`
	AverageExpense       decimal.Decimal `json:"average_expense"`
	AverageRevenue       decimal.Decimal `json:"average_revenue"`
	TopExpenseCategory   string          `json:"top_expense_category"`
	TopRevenueCategory   string          `json:"top_revenue_category"`
	DaysWithTransactions int             `json:"days_with_transactions"`
	DailyAverageSpending decimal.Decimal `json:"daily_average_spending"`
}

type reportResponse struct {
	FinancialSummary   financialSummaryResponse       `json:"financial_summary"`
	ExpensesByCategory []categoryDistributionResponse `json:"expenses_by_category"`
	RevenuesByCategory []categoryDistributionResponse `json:"revenues_by_category"`
	MonthlyEvolution   []monthlyEvolutionResponse     `json:"monthly_evolution"`
	QuickStats         quickStatsResponse             `json:"quick_stats"`
}

func toReportResponse(report *core.Report) reportResponse {
	return reportResponse{
		FinancialSummary: financialSummaryResponse{
			TotalRevenues:  report.FinancialSummary.TotalRevenues,
			TotalExpenses:  report.FinancialSummary.TotalExpenses,
			CurrentBalance: report.FinancialSummary.CurrentBalance,
			MonthlyBalance: report.FinancialSummary.MonthlyBalance,
			BalanceStatus:  string(report.FinancialSummary.BalanceStatus),
			PeriodStart:    report.FinancialSummary.PeriodStart.Format(dateLayout),
			PeriodEnd:      report.FinancialSummary.PeriodEnd.Format(dateLayout),
		},
		ExpensesByCategory: toDistributionResponses(report.ExpensesByCategory),
		RevenuesByCategory: toDistributionResponses(report.RevenuesByCategory),
		MonthlyEvolution:   toEvolutionResponses(report.MonthlyEvolution),
		QuickStats: quickStatsResponse{
			TotalTransactions:    report.QuickStats.TotalTransactions,
			AverageExpense:       report.QuickStats.AverageExpense,
			AverageRevenue:       report.QuickStats.AverageRevenue,
			TopExpenseCategory:   report.QuickStats.TopExpenseCategory,
			TopRevenueCategory:   report.QuickStats.TopRevenueCategory,
			DaysWithTransactions: report.QuickStats.DaysWithTransactions,
			DailyAverageSpending: report.QuickStats.DailyAverageSpending,
		},
	}
}

func toDistributionResponses(distributions []core.CategoryDistribution) []categoryDistributionResponse {
	out := make([]categoryDistributionResponse, 0, len(distributions))
	for _, d := range distributions {
		out = append(out, categoryDistributionResponse{
			CategoryCode:     string(d.CategoryCode),
			CategoryName:     d.CategoryName,
			Emoji:            d.Emoji,
			Color:            d.Color,
			TotalValue:       d.TotalValue,
			Percentage:       d.Percentage,
			TransactionCount: d.TransactionCount,
		})
	}
	return out
}

func toEvolutionResponses(evolution []core.MonthlyEvolution) []monthlyEvolutionResponse {
	out := make([]monthlyEvolutionResponse, 0, len(evolution))
	for _, e := range evolution {
		out = append(out, monthlyEvolutionResponse{
			Year:        e.Year,
			Month:       e.Month,
			Revenues:    e.Revenues,
			Expenses:    e.Expenses,
			Balance:     e.Balance,
			PeriodLabel: e.PeriodLabel,
		})
	}
	return out
}

type recentTransactionResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Date        string          `json:"date"`
}

type categorySummaryResponse struct {
	CategoryCode            string                      `json:"category_code"`
	CategoryName            string                      `json:"category_name"`
	Emoji                   string                      `json:"emoji"`
	Color                   string                      `json:"color"`
	TotalValue              decimal.Decimal             `json:"total_value"`
	Percentage              float64                     `json:"percentage"`
	TransactionCount        int                         `json:"transaction_count"`
	AverageTransactionValue decimal.Decimal             `json:"average_transaction_value"`
	RecentTransactions      []recentTransactionResponse `json:"recent_transactions"`
}

func toCategorySummaryResponse(summary core.CategorySummary) categorySummaryResponse {
	recent := make([]recentTransactionResponse, 0, len(summary.RecentTransactions))
	for _, t := range summary.RecentTransactions {
		recent = append(recent, recentTransactionResponse{
			ID:          t.ID,
			Description: t.Description,
			Value:       t.Value,
			Date:        t.Date.Format(dateLayout),
		})
	}
	return categorySummaryResponse{
		CategoryCode:            string(summary.CategoryCode),
		CategoryName:            summary.CategoryName,
		Emoji:                   summary.Emoji,
		Color:                   summary.Color,
		TotalValue:              summary.TotalValue,
		Percentage:              summary.Percentage,
		TransactionCount:        summary.TransactionCount,
		AverageTransactionValue: summary.AverageTransactionValue,
		RecentTransactions:      recent,
	}
}
