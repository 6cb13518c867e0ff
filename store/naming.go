package store

import "github.com/go-openapi/inflect"

// TableFor derives the storage table from an entity name: underscore,
// then pluralize. "CompanyRut" becomes "company_ruts", "DocumentStatus"
// becomes "document_statuses". Every table in the schema is named through
// it so the mapping stays in one place.
func TableFor(entity string) string {
	return inflect.Pluralize(inflect.Underscore(entity))
}
