package domain

import "fmt"

// ============================================================
// Chart & Report series
// ============================================================

// ChartPoint is one bucket of the income/expense series consumed by the
// dashboard charts. Field names follow the frontend contract.
type ChartPoint struct {
	PeriodLabel       string  `json:"period_label"`
	Receitas          float64 `json:"receitas"`
	Despesas          float64 `json:"despesas"`
	GastosRecorrentes float64 `json:"gastosRecorrentes"`
	FluxoLiquido      float64 `json:"fluxoLiquido"`
	IsFuture          bool    `json:"isFuture,omitempty"`
}

// CategorySlice is one slice of the category breakdown pie.
type CategorySlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Icon  string  `json:"icon"`
}

// CategoryColor returns the deterministic HSL color for the category at the
// given index. The golden-angle step keeps adjacent slices visually distinct.
func CategoryColor(index int) string {
	hue := int(float64(index)*137.5) % 360
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hue)
}

// DashboardSummary is the aggregated view behind the dashboard header.
type DashboardSummary struct {
	Saldo             float64          `json:"saldo"`
	ReceitasMes       float64          `json:"receitas_mes"`
	DespesasMes       float64          `json:"despesas_mes"`
	GastosRecorrentes float64          `json:"gastos_recorrentes"`
	Bills             []CreditCardBill `json:"bills"`
}

// ============================================================
// Category icons
// ============================================================

// Category icons are a closed registry resolved at compile time; unknown
// categories fall back to IconUnknown instead of failing at render time.
const IconUnknown = "circle-help"

var categoryIcons = map[string]string{
	"alimentacao":  "utensils",
	"mercado":      "shopping-cart",
	"transporte":   "car",
	"moradia":      "home",
	"saude":        "heart-pulse",
	"educacao":     "graduation-cap",
	"lazer":        "gamepad-2",
	"viagem":       "plane",
	"assinaturas":  "repeat",
	"vestuario":    "shirt",
	"pets":         "paw-print",
	"salario":      "banknote",
	"investimento": "trending-up",
	"cartao":       "credit-card",
	"outros":       "package",
}

// CategoryIcon resolves a category slug to its icon identifier.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return IconUnknown
}
