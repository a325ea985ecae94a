// Package core implements the ledger domain: the category catalog, activity
// validation, balance arithmetic, period resolution and report aggregation.
//
// Everything in this package is pure and synchronous. Callers fetch activities
// from storage, then hand them to these functions together with an explicit
// Catalog; no global state is consulted.
package core

// Category is a code from the category catalog (e.g. "FOOD", "SALARY").
type Category string

// CategoryInfo carries the display metadata for one catalog entry.
// Revenue marks the code as revenue-eligible; every other code is
// expense-eligible.
type CategoryInfo struct {
	Code        Category
	DisplayName string
	Emoji       string
	Color       string
	Description string
	Revenue     bool
}

// Catalog is an immutable lookup over a fixed set of category codes.
type Catalog struct {
	entries []CategoryInfo
	byCode  map[Category]CategoryInfo
}

// NewCatalog builds a catalog from the given entries. Entry order is preserved
// for listings.
func NewCatalog(entries []CategoryInfo) Catalog {
	byCode := make(map[Category]CategoryInfo, len(entries))
	copied := make([]CategoryInfo, len(entries))
	copy(copied, entries)
	for _, e := range copied {
		byCode[e.Code] = e
	}
	return Catalog{entries: copied, byCode: byCode}
}

// Lookup returns the metadata for a code.
func (c Catalog) Lookup(code Category) (CategoryInfo, bool) {
	info, ok := c.byCode[code]
	return info, ok
}

// Contains reports whether the code belongs to the catalog.
func (c Catalog) Contains(code Category) bool {
	_, ok := c.byCode[code]
	return ok
}

// IsRevenue reports whether the code is revenue-eligible.
// Unknown codes are neither revenue- nor expense-eligible.
func (c Catalog) IsRevenue(code Category) bool {
	info, ok := c.byCode[code]
	return ok && info.Revenue
}

// IsExpense reports whether the code is expense-eligible.
func (c Catalog) IsExpense(code Category) bool {
	info, ok := c.byCode[code]
	return ok && !info.Revenue
}

// All returns every catalog entry in declaration order.
func (c Catalog) All() []CategoryInfo {
	out := make([]CategoryInfo, len(c.entries))
	copy(out, c.entries)
	return out
}

// ExpenseCategories returns the expense-eligible entries in declaration order.
func (c Catalog) ExpenseCategories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Revenue {
			out = append(out, e)
		}
	}
	return out
}

// RevenueCategories returns the revenue-eligible entries in declaration order.
func (c Catalog) RevenueCategories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Revenue {
			out = append(out, e)
		}
	}
	return out
}

// DisplayName returns the display name for a code, falling back to the code
// itself when the catalog does not know it.
func (c Catalog) DisplayName(code Category) string {
	if info, ok := c.byCode[code]; ok {
		return info.DisplayName
	}
	return string(code)
}

// Expense category codes.
const (
	CategoryFood               Category = "FOOD"
	CategoryGroceries          Category = "GROCERIES"
	CategoryRent               Category = "RENT"
	CategoryHouseBills         Category = "HOUSE_BILLS"
	CategoryMaintenance        Category = "MAINTENANCE"
	CategoryFuel               Category = "FUEL"
	CategoryPublicTransport    Category = "PUBLIC_TRANSPORT"
	CategoryVehicleMaintenance Category = "VEHICLE_MAINTENANCE"
	CategoryClothing           Category = "CLOTHING"
	CategoryHealth             Category = "HEALTH"
	CategoryGym                Category = "GYM"
	CategoryEducation          Category = "EDUCATION"
	CategoryEntertainment      Category = "ENTERTAINMENT"
	CategoryTravel             Category = "TRAVEL"
	CategoryInvestment         Category = "INVESTMENT"
	CategoryLoan               Category = "LOAN"
	CategoryGifts              Category = "GIFTS"
	CategoryOthers             Category = "OTHERS"
)

// Revenue category codes.
const (
	CategorySalary           Category = "SALARY"
	CategoryFreelance        Category = "FREELANCE"
	CategoryInvestmentReturn Category = "INVESTMENT_RETURN"
	CategorySale             Category = "VENDA"
	CategoryOtherIncome      Category = "OTHER_INCOME"
)

// DefaultCatalog returns the built-in category catalog.
func DefaultCatalog() Catalog {
	return NewCatalog([]CategoryInfo{
		{Code: CategoryFood, DisplayName: "Alimentação", Emoji: "🍽️", Color: "#FF6B6B", Description: "Gastos com comida, restaurantes, delivery"},
		{Code: CategoryGroceries, DisplayName: "Supermercado", Emoji: "🛒", Color: "#4ECDC4", Description: "Compras de mercado e produtos básicos"},
		{Code: CategoryRent, DisplayName: "Aluguel", Emoji: "🏠", Color: "#45B7D1", Description: "Aluguel, financiamento, IPTU"},
		{Code: CategoryHouseBills, DisplayName: "Contas da Casa", Emoji: "💡", Color: "#96CEB4", Description: "Luz, água, gás, internet, telefone"},
		{Code: CategoryMaintenance, DisplayName: "Manutenção", Emoji: "🔧", Color: "#FFEAA7", Description: "Reparos, reformas, limpeza"},
		{Code: CategoryFuel, DisplayName: "Combustível", Emoji: "⛽", Color: "#FD79A8", Description: "Gasolina, álcool, diesel"},
		{Code: CategoryPublicTransport, DisplayName: "Transporte Público", Emoji: "🚌", Color: "#6C5CE7", Description: "Ônibus, metrô, trem, táxi, uber"},
		{Code: CategoryVehicleMaintenance, DisplayName: "Manutenção Veículo", Emoji: "🔧", Color: "#A29BFE", Description: "Mecânico, revisão, seguro, IPVA"},
		{Code: CategoryClothing, DisplayName: "Roupas", Emoji: "👕", Color: "#74B9FF", Description: "Roupas, sapatos, acessórios"},
		{Code: CategoryHealth, DisplayName: "Saúde", Emoji: "🏥", Color: "#55A3FF", Description: "Médico, dentista, exames, remédios"},
		{Code: CategoryGym, DisplayName: "Academia", Emoji: "💪", Color: "#00B894", Description: "Academia, esportes, atividades físicas"},
		{Code: CategoryEducation, DisplayName: "Educação", Emoji: "📚", Color: "#FDCB6E", Description: "Cursos, livros, material escolar"},
		{Code: CategoryEntertainment, DisplayName: "Entretenimento", Emoji: "🎮", Color: "#E17055", Description: "Cinema, jogos, streaming, hobbies"},
		{Code: CategoryTravel, DisplayName: "Viagem", Emoji: "✈️", Color: "#00CEC9", Description: "Viagens, hotéis, turismo"},
		{Code: CategoryInvestment, DisplayName: "Investimento", Emoji: "📈", Color: "#2D3436", Description: "Aplicações, ações, fundos"},
		{Code: CategoryLoan, DisplayName: "Empréstimo", Emoji: "💳", Color: "#636E72", Description: "Empréstimos, financiamentos, cartão"},
		{Code: CategoryGifts, DisplayName: "Presentes", Emoji: "🎁", Color: "#E84393", Description: "Presentes, doações, caridade"},
		{Code: CategoryOthers, DisplayName: "Outros", Emoji: "📋", Color: "#B2BEC3", Description: "Gastos diversos não categorizados"},
		{Code: CategorySalary, DisplayName: "Salário", Emoji: "💰", Color: "#00B894", Description: "Salário, bonificações", Revenue: true},
		{Code: CategoryFreelance, DisplayName: "Freelance", Emoji: "💻", Color: "#0984E3", Description: "Trabalhos extras, consultoria", Revenue: true},
		{Code: CategoryInvestmentReturn, DisplayName: "Retorno Investimento", Emoji: "📊", Color: "#6C5CE7", Description: "Dividendos, juros, lucros", Revenue: true},
		{Code: CategorySale, DisplayName: "Venda", Emoji: "💸", Color: "#FDCB6E", Description: "Venda de produtos, serviços", Revenue: true},
		{Code: CategoryOtherIncome, DisplayName: "Outros Ganhos", Emoji: "💎", Color: "#A29BFE", Description: "Outros tipos de receita", Revenue: true},
	})
}
