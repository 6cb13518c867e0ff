package domain

import (
	"strings"

	"github.com/australsoft/folio/validate"
)

// Lookup is a read-mostly reference row: countries, currencies, units and
// the other classification tables share this shape. Code is short, unique
// within its table and stored uppercase.
type Lookup struct {
	AuditFields
	Code     string
	Name     string
	IsActive bool
}

// Normalize uppercases the code and trims both fields.
func (l *Lookup) Normalize() error {
	l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
	l.Name = strings.TrimSpace(l.Name)
	return nil
}

// Validate requires code and name.
func (l *Lookup) Validate() error {
	if _, err := validate.Required("code", l.Code); err != nil {
		return err
	}
	_, err := validate.Required("name", l.Name)
	return err
}

// LookupFields exposes the embedded lookup columns to the store's shared
// row mapper.
func (l *Lookup) LookupFields() *Lookup { return l }

// Country is a country reference row. Code is ISO 3166-1 alpha-2.
type Country struct {
	Lookup
}

// Currency is a currency reference row. Code is ISO 4217; Symbol is the
// display glyph ("$", "€"); DecimalPlaces the minor-unit count used when
// rounding totals.
type Currency struct {
	Lookup
	Symbol        string
	DecimalPlaces int32
}

// Validate additionally bounds the minor-unit count.
func (c *Currency) Validate() error {
	if err := c.Lookup.Validate(); err != nil {
		return err
	}
	return validate.NonNegativeInt("decimal_places", int64(c.DecimalPlaces))
}

// City is a city reference row scoped to a country.
type City struct {
	AuditFields
	Name      string
	CountryID int64
	IsActive  bool
}

// Normalize trims the name.
func (c *City) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	return nil
}

// Validate requires a name and an owning country.
func (c *City) Validate() error {
	if _, err := validate.Required("name", c.Name); err != nil {
		return err
	}
	return validate.PositiveID("country_id", c.CountryID)
}

// Unit is a measurement unit reference row (UN, KG, M2, HR).
type Unit struct {
	Lookup
}

// Incoterm is an international-commerce delivery term (EXW, FOB, CIF).
type Incoterm struct {
	Lookup
}

// CompanyType classifies a company as client, supplier or both. The two
// codes the document services resolve against are CompanyTypeClient and
// CompanyTypeSupplier.
type CompanyType struct {
	Lookup
}

// Company type codes.
const (
	CompanyTypeClient   = "CLIENT"
	CompanyTypeSupplier = "SUPPLIER"
)

// Matter is the material classification of a product (steel, polymer).
type Matter struct {
	Lookup
}

// FamilyType groups products into commercial families.
type FamilyType struct {
	Lookup
}

// SalesType classifies how a product is sold.
type SalesType struct {
	Lookup
}

// DocumentStatus is one status a document family can be in. Family names
// the document kind ("quote", "order", "delivery", "invoice"), Code the
// short status code stored on documents, Sort the display order.
type DocumentStatus struct {
	AuditFields
	Family   string
	Code     string
	Name     string
	Sort     int
	IsActive bool
}

// Normalize lowercases the family and uppercases the code.
func (s *DocumentStatus) Normalize() error {
	s.Family = strings.ToLower(strings.TrimSpace(s.Family))
	s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
	s.Name = strings.TrimSpace(s.Name)
	return nil
}

// Validate requires family, code and name.
func (s *DocumentStatus) Validate() error {
	if _, err := validate.Required("family", s.Family); err != nil {
		return err
	}
	if _, err := validate.Required("code", s.Code); err != nil {
		return err
	}
	_, err := validate.Required("name", s.Name)
	return err
}
