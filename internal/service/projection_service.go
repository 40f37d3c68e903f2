package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var projectionTracer = otel.Tracer("service/projection")

const (
	projectionMonths = 24
	// A run of this many empty months ends the projection early.
	projectionZeroRunCutoff = 6
)

// ProjectionService projects future cash flow from recurring transactions
// and open installment plans.
type ProjectionService struct {
	core *FinanceService
	now  func() time.Time
}

// NewProjectionService creates a new projection service.
func NewProjectionService(core *FinanceService) *ProjectionService {
	return &ProjectionService{core: core, now: time.Now}
}

// Project builds up to 24 months of projected cash flow starting from the
// month after the current one. Recurring transactions repeat their full
// amount every month; installment plans contribute their share while the
// plan lasts. The projection stops early once six consecutive months have
// no activity at all.
func (s *ProjectionService) Project(ctx context.Context, authID string) ([]domain.ChartPoint, error) {
	ctx, span := projectionTracer.Start(ctx, "ProjectionService.Project")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.ChartPoint{}, nil
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	points := make([]domain.ChartPoint, 0, projectionMonths)
	zeroRun := 0

	for i := 0; i < projectionMonths; i++ {
		ref := first.AddDate(0, i, 0)
		point := projectMonth(transactions, ref.Year(), ref.Month())
		point.PeriodLabel = monthLabel(ref.Year(), ref.Month())
		point.IsFuture = true

		if point.Receitas == 0 && point.Despesas == 0 {
			zeroRun++
			if zeroRun >= projectionZeroRunCutoff {
				// Drop the trailing empty months already appended.
				points = points[:len(points)-(projectionZeroRunCutoff-1)]
				break
			}
		} else {
			zeroRun = 0
		}

		points = append(points, point)
	}

	return points, nil
}

// projectMonth sums the recurring amounts and installment shares that land
// in a future month.
func projectMonth(transactions []domain.Transaction, year int, month time.Month) domain.ChartPoint {
	var point domain.ChartPoint

	for i := range transactions {
		t := &transactions[i]

		if t.IsRecurring {
			if t.IsIncome() {
				point.Receitas += t.Amount
			} else {
				point.Despesas += t.Amount
				point.GastosRecorrentes += t.Amount
			}
			continue
		}

		if share, ok := t.InstallmentShare(year, month); ok {
			if t.IsExpense() {
				point.Despesas += share
			} else {
				point.Receitas += share
			}
		}
	}

	point.Receitas = domain.RoundCents(point.Receitas)
	point.Despesas = domain.RoundCents(point.Despesas)
	point.GastosRecorrentes = domain.RoundCents(point.GastosRecorrentes)
	point.FluxoLiquido = domain.RoundCents(point.Receitas - point.Despesas)
	return point
}
