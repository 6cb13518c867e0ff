// Package domain defines the entities of the business core: companies and
// their satellites, the product catalog with its bill-of-materials edges,
// the commercial documents (quotes, orders, deliveries, invoices) and the
// reference lookups. Entities are plain structs; each carries Normalize to
// canonicalize its fields and Validate to enforce the field-level rules
// from the validate package. Construction of SQL and persistence live in
// the store package, traversal of product structures in bom.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields are the columns every entity carries: the store-assigned id,
// timestamps and the acting principals of the first and latest write. The
// store stamps them from the session's audit context; entities never fill
// them in themselves.
type AuditFields struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy int64
	UpdatedBy int64
}

// GetID returns the entity id.
func (f *AuditFields) GetID() int64 { return f.ID }

// SetID records the store-assigned id after insert.
func (f *AuditFields) SetID(id int64) { f.ID = id }

// StampCreate fills the audit columns for a first write.
func (f *AuditFields) StampCreate(now time.Time, by int64) {
	f.CreatedAt = now
	f.UpdatedAt = now
	f.CreatedBy = by
	f.UpdatedBy = by
}

// StampUpdate refreshes the audit columns for a subsequent write.
func (f *AuditFields) StampUpdate(now time.Time, by int64) {
	f.UpdatedAt = now
	f.UpdatedBy = by
}

// Entity is the surface the generic repository needs from every aggregate.
// All domain entities satisfy it through the embedded AuditFields.
type Entity interface {
	GetID() int64
	SetID(int64)
	StampCreate(now time.Time, by int64)
	StampUpdate(now time.Time, by int64)
}

// Normalizer is implemented by entities that canonicalize their fields
// (trim, case, fold) before validation. The store runs it on every write.
type Normalizer interface {
	Normalize() error
}

// Validator is implemented by entities with field-level rules. The store
// runs it on every write, after Normalize.
type Validator interface {
	Validate() error
}

// SoftDeletable marks entities that support soft deletion. Repositories
// refuse SoftDelete on anything else.
type SoftDeletable interface {
	SoftDeleted() bool
	MarkDeleted()
}

// SoftDeleteField is embedded by soft-deletable entities.
type SoftDeleteField struct {
	IsDeleted bool
}

// SoftDeleted reports whether the entity is soft-deleted.
func (f *SoftDeleteField) SoftDeleted() bool { return f.IsDeleted }

// MarkDeleted flags the entity as soft-deleted.
func (f *SoftDeleteField) MarkDeleted() { f.IsDeleted = true }

// one hundred, shared by totals and margin math.
var hundred = decimal.NewFromInt(100)

// DateOnly truncates t to midnight UTC. Document dates are compared at day
// granularity.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
