package store

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

func noteMeta() meta[*domain.Note] {
	return meta[*domain.Note]{
		label:      "note",
		table:      TableFor("Note"),
		softDelete: true,
		columns: []string{"entity_type", "entity_id", "title", "content", "priority", "category", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Note, error) {
			n := new(domain.Note)
			err := rows.Scan(&n.ID, &n.EntityType, &n.EntityID, &n.Title, &n.Content, &n.Priority, &n.Category, &n.IsDeleted,
				&n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy)
			return n, err
		},
		values: func(n *domain.Note) []any {
			return []any{n.EntityType, n.EntityID, n.Title, n.Content, n.Priority, n.Category, n.IsDeleted,
				n.CreatedAt, n.UpdatedAt, n.CreatedBy, n.UpdatedBy}
		},
	}
}

// NoteRepo serves the polymorphic notes table.
type NoteRepo struct {
	*Repository[*domain.Note]
}

// ForTarget returns the target's notes, newest first.
func (r *NoteRepo) ForTarget(ctx context.Context, target domain.NoteTarget) ([]*domain.Note, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{EntityType.EQ(target.Kind), EntityID.EQ(target.ID)},
		OrderBy:    colCreatedAt,
		Descending: true,
	})
}

// ByPriority returns the target's notes of the given priority, newest
// first.
func (r *NoteRepo) ByPriority(ctx context.Context, target domain.NoteTarget, p domain.Priority) ([]*domain.Note, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{EntityType.EQ(target.Kind), EntityID.EQ(target.ID), Priority.EQ(p)},
		OrderBy:    colCreatedAt,
		Descending: true,
	})
}

// DeleteForTarget hard-deletes the target's notes, soft-deleted ones
// included. Callers deleting an aggregate use it to take the annotations
// down with the row.
func (r *NoteRepo) DeleteForTarget(ctx context.Context, target domain.NoteTarget) (int, error) {
	return r.DeleteMany(ctx, Query{
		Predicates:     []Predicate{EntityType.EQ(target.Kind), EntityID.EQ(target.ID)},
		IncludeDeleted: true,
	})
}

func paymentConditionMeta() meta[*domain.PaymentCondition] {
	return meta[*domain.PaymentCondition]{
		label: "payment condition",
		table: TableFor("PaymentCondition"),
		columns: []string{"code", "name", "days_to_pay", "advance_percentage",
			"on_delivery_percentage", "after_delivery_percentage", "days_after_delivery", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.PaymentCondition, error) {
			p := new(domain.PaymentCondition)
			err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.DaysToPay, &p.AdvancePercentage,
				&p.OnDeliveryPercentage, &p.AfterDeliveryPercent, &p.DaysAfterDelivery, &p.IsActive,
				&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy)
			return p, err
		},
		values: func(p *domain.PaymentCondition) []any {
			return []any{p.Code, p.Name, p.DaysToPay, p.AdvancePercentage,
				p.OnDeliveryPercentage, p.AfterDeliveryPercent, p.DaysAfterDelivery, p.IsActive,
				p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy}
		},
	}
}

// PaymentConditionRepo serves the payment_conditions table.
type PaymentConditionRepo struct {
	*Repository[*domain.PaymentCondition]
}

// ByCode returns the condition with the code, NotFound when absent.
func (r *PaymentConditionRepo) ByCode(ctx context.Context, code string) (*domain.PaymentCondition, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Code.EQ(code)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, code)
	}
	return rows[0], nil
}

// Active returns the selectable conditions ordered by code.
func (r *PaymentConditionRepo) Active(ctx context.Context) ([]*domain.PaymentCondition, error) {
	return r.Find(ctx, Query{Predicates: []Predicate{IsActive.EQ(true)}, OrderBy: "code"})
}
