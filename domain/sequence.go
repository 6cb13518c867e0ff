package domain

import (
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// Sequence is one counter bucket of the document number generator, keyed
// by (name, year, prefix). Prefix is stored as the empty string when
// absent so the composite key holds in SQL. Buckets are infrastructure
// rather than audited aggregates: the generator mutates LastValue under a
// row lock and this struct exists for inspection.
type Sequence struct {
	Name      string // document family
	Year      int
	Prefix    string
	LastValue int64
}

// Normalize lowercases the family name and uppercases the prefix.
func (s *Sequence) Normalize() error {
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	s.Prefix = strings.ToUpper(strings.TrimSpace(s.Prefix))
	return nil
}

// Validate requires the family name, a plausible year and a non-negative
// counter.
func (s *Sequence) Validate() error {
	if _, err := validate.Required("name", s.Name); err != nil {
		return err
	}
	return folio.NewAggregateError(
		validate.Year("year", s.Year),
		validate.NonNegativeInt("last_value", s.LastValue),
	)
}
