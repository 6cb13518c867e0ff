package sql

import "time"

// PredicateFunc constrains the predicate type produced by the typed field
// handles below. Any named func(*Selector) type satisfies it, so callers
// declare their own predicate type once and share handles everywhere:
//
//	type Predicate = func(*sql.Selector)
//
//	var Trigram = sql.StringField[Predicate]("trigram")
type PredicateFunc interface {
	~func(*Selector)
}

// StringField builds predicates for a text column. Produced predicates
// qualify the column with the selector's table, so they stay unambiguous
// under joins.
//
//	Trigram.EQ("ACM")
//	InvoiceNumber.HasPrefix("F-2025-")
type StringField[P PredicateFunc] string

// Name returns the column name.
func (f StringField[P]) Name() string { return string(f) }

// EQ matches rows whose column equals v.
func (f StringField[P]) EQ(v string) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows whose column differs from v.
func (f StringField[P]) NEQ(v string) P { return P(FieldNEQ(string(f), v)) }

// In matches rows whose column equals one of vs.
func (f StringField[P]) In(vs ...string) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows whose column equals none of vs.
func (f StringField[P]) NotIn(vs ...string) P { return P(FieldNotIn(string(f), vs...)) }

// Contains matches rows whose column contains sub.
func (f StringField[P]) Contains(sub string) P { return P(FieldContains(string(f), sub)) }

// ContainsFold matches rows whose column contains sub, ignoring case.
func (f StringField[P]) ContainsFold(sub string) P { return P(FieldContainsFold(string(f), sub)) }

// HasPrefix matches rows whose column starts with prefix.
func (f StringField[P]) HasPrefix(prefix string) P { return P(FieldHasPrefix(string(f), prefix)) }

// HasSuffix matches rows whose column ends with suffix.
func (f StringField[P]) HasSuffix(suffix string) P { return P(FieldHasSuffix(string(f), suffix)) }

// EqualFold matches rows whose column equals v, ignoring case.
func (f StringField[P]) EqualFold(v string) P { return P(FieldEqualFold(string(f), v)) }

// IsNull matches rows whose column is NULL.
func (f StringField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows whose column is not NULL.
func (f StringField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// Int64Field builds predicates for a bigint column. Primary and foreign
// keys are the usual handles:
//
//	var CompanyID = sql.Int64Field[Predicate]("company_id")
type Int64Field[P PredicateFunc] string

// Name returns the column name.
func (f Int64Field[P]) Name() string { return string(f) }

// EQ matches rows whose column equals v.
func (f Int64Field[P]) EQ(v int64) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows whose column differs from v.
func (f Int64Field[P]) NEQ(v int64) P { return P(FieldNEQ(string(f), v)) }

// In matches rows whose column equals one of vs.
func (f Int64Field[P]) In(vs ...int64) P { return P(FieldIn(string(f), vs...)) }

// NotIn matches rows whose column equals none of vs.
func (f Int64Field[P]) NotIn(vs ...int64) P { return P(FieldNotIn(string(f), vs...)) }

// GT matches rows whose column is greater than v.
func (f Int64Field[P]) GT(v int64) P { return P(FieldGT(string(f), v)) }

// GTE matches rows whose column is greater than or equal to v.
func (f Int64Field[P]) GTE(v int64) P { return P(FieldGTE(string(f), v)) }

// LT matches rows whose column is less than v.
func (f Int64Field[P]) LT(v int64) P { return P(FieldLT(string(f), v)) }

// LTE matches rows whose column is less than or equal to v.
func (f Int64Field[P]) LTE(v int64) P { return P(FieldLTE(string(f), v)) }

// IsNull matches rows whose column is NULL.
func (f Int64Field[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows whose column is not NULL.
func (f Int64Field[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// BoolField builds predicates for a boolean column, typically the
// is_active and is_deleted flags.
type BoolField[P PredicateFunc] string

// Name returns the column name.
func (f BoolField[P]) Name() string { return string(f) }

// EQ matches rows whose column equals v.
func (f BoolField[P]) EQ(v bool) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows whose column differs from v.
func (f BoolField[P]) NEQ(v bool) P { return P(FieldNEQ(string(f), v)) }

// IsNull matches rows whose column is NULL.
func (f BoolField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows whose column is not NULL.
func (f BoolField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// TimeField builds predicates for a date or timestamp column. Range
// scans drive the aging finders:
//
//	DueDate.LT(cutoff)
type TimeField[P PredicateFunc] string

// Name returns the column name.
func (f TimeField[P]) Name() string { return string(f) }

// EQ matches rows whose column equals v.
func (f TimeField[P]) EQ(v time.Time) P { return P(FieldEQ(string(f), v)) }

// NEQ matches rows whose column differs from v.
func (f TimeField[P]) NEQ(v time.Time) P { return P(FieldNEQ(string(f), v)) }

// GT matches rows whose column is after v.
func (f TimeField[P]) GT(v time.Time) P { return P(FieldGT(string(f), v)) }

// GTE matches rows whose column is at or after v.
func (f TimeField[P]) GTE(v time.Time) P { return P(FieldGTE(string(f), v)) }

// LT matches rows whose column is before v.
func (f TimeField[P]) LT(v time.Time) P { return P(FieldLT(string(f), v)) }

// LTE matches rows whose column is at or before v.
func (f TimeField[P]) LTE(v time.Time) P { return P(FieldLTE(string(f), v)) }

// IsNull matches rows whose column is NULL.
func (f TimeField[P]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows whose column is not NULL.
func (f TimeField[P]) NotNull() P { return P(FieldNotNull(string(f))) }

// EnumField builds predicates for a column holding a string-backed enum.
// The second type parameter pins which enum the column takes:
//
//	var OrderType = sql.EnumField[Predicate, domain.OrderType]("order_type")
type EnumField[P PredicateFunc, T ~string] string

// Name returns the column name.
func (f EnumField[P, T]) Name() string { return string(f) }

// EQ matches rows whose column equals v.
func (f EnumField[P, T]) EQ(v T) P { return P(FieldEQ(string(f), string(v))) }

// NEQ matches rows whose column differs from v.
func (f EnumField[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), string(v))) }

// In matches rows whose column equals one of vs.
func (f EnumField[P, T]) In(vs ...T) P {
	ss := make([]string, len(vs))
	for i := range vs {
		ss[i] = string(vs[i])
	}
	return P(FieldIn(string(f), ss...))
}

// NotIn matches rows whose column equals none of vs.
func (f EnumField[P, T]) NotIn(vs ...T) P {
	ss := make([]string, len(vs))
	for i := range vs {
		ss[i] = string(vs[i])
	}
	return P(FieldNotIn(string(f), ss...))
}

// IsNull matches rows whose column is NULL.
func (f EnumField[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull matches rows whose column is not NULL.
func (f EnumField[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }
