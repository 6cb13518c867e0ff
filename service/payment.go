package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// PaymentService manages payment conditions and derives installment
// schedules from them.
type PaymentService struct {
	s *Services
}

// Create persists a payment condition.
func (s *PaymentService) Create(ctx context.Context, sess *store.Session, pc *domain.PaymentCondition) (*domain.PaymentCondition, error) {
	if err := sess.PaymentConditions.Create(ctx, pc); err != nil {
		return nil, err
	}
	s.s.log.Info("payment condition created", "code", pc.Code, "days_to_pay", pc.DaysToPay)
	return pc, nil
}

// Get returns the payment condition.
func (s *PaymentService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.PaymentCondition, error) {
	return sess.PaymentConditions.Get(ctx, id)
}

// ByCode returns the payment condition with the code.
func (s *PaymentService) ByCode(ctx context.Context, sess *store.Session, code string) (*domain.PaymentCondition, error) {
	return sess.PaymentConditions.ByCode(ctx, code)
}

// Active lists the conditions currently offered.
func (s *PaymentService) Active(ctx context.Context, sess *store.Session) ([]*domain.PaymentCondition, error) {
	return sess.PaymentConditions.Active(ctx)
}

// Update rewrites a payment condition.
func (s *PaymentService) Update(ctx context.Context, sess *store.Session, pc *domain.PaymentCondition) (*domain.PaymentCondition, error) {
	if err := sess.PaymentConditions.Update(ctx, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// Deactivate withdraws the condition from new documents.
func (s *PaymentService) Deactivate(ctx context.Context, sess *store.Session, id int64) error {
	pc, err := sess.PaymentConditions.Get(ctx, id)
	if err != nil {
		return err
	}
	pc.IsActive = false
	return sess.PaymentConditions.Update(ctx, pc)
}

// Schedule splits total under the identified condition. deliveryDate may
// be nil when the goods have not moved yet.
func (s *PaymentService) Schedule(ctx context.Context, sess *store.Session, conditionID int64, total decimal.Decimal, invoiceDate time.Time, deliveryDate *time.Time) ([]domain.Installment, error) {
	pc, err := sess.PaymentConditions.Get(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	return pc.Schedule(total, invoiceDate, deliveryDate), nil
}
