package domain

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// ProductType says what a catalog item is: a stocked article, a composite
// nomenclature assembled from components, or a service with no physical
// existence.
type ProductType string

// Product types. Stored uppercase; ParseProductType accepts any case.
const (
	ProductArticle      ProductType = "ARTICLE"
	ProductNomenclature ProductType = "NOMENCLATURE"
	ProductService      ProductType = "SERVICE"
)

// ParseProductType normalizes s to the canonical uppercase code and
// rejects unknown values.
func ParseProductType(s string) (ProductType, error) {
	switch t := ProductType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ProductArticle, ProductNomenclature, ProductService:
		return t, nil
	default:
		return "", folio.NewValidationError("product_type", errors.New("unknown product type "+s))
	}
}

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	_, err := ParseProductType(string(t))
	return err == nil
}

// PriceMode says how a product's prices are maintained: typed in by hand,
// rolled up from BOM components, or derived from cost and margin.
type PriceMode string

// Price calculation modes.
const (
	PriceManual         PriceMode = "MANUAL"
	PriceFromComponents PriceMode = "FROM_COMPONENTS"
	PriceFromCostMargin PriceMode = "FROM_COST_MARGIN"
)

// ParsePriceMode normalizes s to the canonical uppercase code and rejects
// unknown values.
func ParsePriceMode(s string) (PriceMode, error) {
	switch m := PriceMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case PriceManual, PriceFromComponents, PriceFromCostMargin:
		return m, nil
	default:
		return "", folio.NewValidationError("price_calculation_mode", errors.New("unknown price mode "+s))
	}
}

// Valid reports whether m is a known price mode.
func (m PriceMode) Valid() bool {
	_, err := ParsePriceMode(string(m))
	return err == nil
}

// Margin bounds, in percent.
var (
	marginMin = decimal.NewFromInt(-100)
	marginMax = decimal.NewFromInt(1000)
)

// Product is a catalog item. Money and quantity fields are non-negative
// decimals; physical fields are optional. SearchText is a derived column
// maintained by Normalize: the diacritic-folded, lowercased concatenation
// of the reference and the three designations, matched with LIKE by the
// product search.
type Product struct {
	AuditFields
	SoftDeleteField
	Reference        string
	Type             ProductType
	DesignationES    string
	DesignationEN    string
	DesignationFR    string
	ShortDesignation string

	UnitID          int64 // 0 means unset
	FamilyTypeID    int64
	MatterID        int64
	SalesTypeID     int64
	OriginCountryID int64

	PurchasePrice    decimal.Decimal
	CostPrice        decimal.Decimal
	SalePrice        decimal.Decimal
	SalePriceEUR     decimal.NullDecimal
	MarginPercentage decimal.Decimal
	PriceMode        PriceMode

	StockQuantity decimal.Decimal
	MinimumStock  decimal.Decimal
	StockLocation string

	NetWeight   decimal.NullDecimal // kg
	GrossWeight decimal.NullDecimal
	LengthMM    decimal.NullDecimal
	WidthMM     decimal.NullDecimal
	HeightMM    decimal.NullDecimal
	VolumeM3    decimal.NullDecimal

	SearchText string
	IsActive   bool
}

// Normalize uppercases the reference, canonicalizes type and mode and
// rebuilds the derived search text.
func (p *Product) Normalize() error {
	p.Reference = strings.ToUpper(strings.TrimSpace(p.Reference))
	p.DesignationES = strings.TrimSpace(p.DesignationES)
	p.DesignationEN = strings.TrimSpace(p.DesignationEN)
	p.DesignationFR = strings.TrimSpace(p.DesignationFR)
	p.ShortDesignation = strings.TrimSpace(p.ShortDesignation)
	p.StockLocation = strings.TrimSpace(p.StockLocation)
	if p.Type == "" {
		p.Type = ProductArticle
	}
	if p.PriceMode == "" {
		p.PriceMode = PriceManual
	}
	t, err := ParseProductType(string(p.Type))
	if err != nil {
		return err
	}
	p.Type = t
	m, err := ParsePriceMode(string(p.PriceMode))
	if err != nil {
		return err
	}
	p.PriceMode = m
	p.SearchText = FoldSearchText(p.Reference, p.DesignationES, p.DesignationEN, p.DesignationFR)
	return nil
}

// Validate enforces the reference shape and the money and stock bounds.
func (p *Product) Validate() error {
	if _, err := validate.Required("reference", p.Reference); err != nil {
		return err
	}
	if _, err := validate.MinLen("reference", p.Reference, 2); err != nil {
		return err
	}
	return folio.NewAggregateError(
		validate.NonNegative("purchase_price", p.PurchasePrice),
		validate.NonNegative("cost_price", p.CostPrice),
		validate.NonNegative("sale_price", p.SalePrice),
		validate.OptionalNonNegative("sale_price_eur", p.SalePriceEUR),
		validate.Range("margin_percentage", p.MarginPercentage, marginMin, marginMax),
		validate.NonNegative("stock_quantity", p.StockQuantity),
		validate.NonNegative("minimum_stock", p.MinimumStock),
		validate.OptionalNonNegative("net_weight", p.NetWeight),
		validate.OptionalNonNegative("gross_weight", p.GrossWeight),
		validate.OptionalNonNegative("volume_m3", p.VolumeM3),
	)
}

// IsComposite reports whether the product can own BOM components.
func (p *Product) IsComposite() bool { return p.Type == ProductNomenclature }

// MarginPrice returns cost_price × (1 + margin/100), the sale price in
// FROM_COST_MARGIN mode.
func (p *Product) MarginPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(p.MarginPercentage.Div(hundred))
	return p.CostPrice.Mul(factor).Round(2)
}

// BelowMinimumStock reports whether an article's stock fell under its
// minimum. Always false for non-articles, which carry no stock.
func (p *Product) BelowMinimumStock() bool {
	if p.Type != ProductArticle {
		return false
	}
	return p.StockQuantity.LessThan(p.MinimumStock)
}

// ProductComponent is one edge of the BOM graph: parent needs quantity ×
// component. Self-edges are rejected here; larger cycles are the bom
// engine's concern.
type ProductComponent struct {
	AuditFields
	ParentID    int64
	ComponentID int64
	Quantity    decimal.Decimal
	Notes       string
}

// Normalize trims the notes.
func (c *ProductComponent) Normalize() error {
	c.Notes = strings.TrimSpace(c.Notes)
	return nil
}

// Validate requires both endpoints, a positive quantity and no self-edge.
func (c *ProductComponent) Validate() error {
	if err := validate.PositiveID("parent_id", c.ParentID); err != nil {
		return err
	}
	if err := validate.PositiveID("component_id", c.ComponentID); err != nil {
		return err
	}
	if c.ParentID == c.ComponentID {
		return folio.NewValidationError("component_id", errors.New("a product cannot be a component of itself"))
	}
	return validate.Positive("quantity", c.Quantity)
}

// foldTransformer strips combining marks after canonical decomposition, so
// "Ññ" folds to "Nn" and "é" to "e".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldSearchText lowercases and diacritic-folds the given parts into the
// single string stored in products.search_text. The product search folds
// the query the same way, making matches accent- and case-insensitive
// across all three dialects.
func FoldSearchText(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, " "))
	folded, _, err := transform.String(foldTransformer, joined)
	if err != nil {
		// Malformed input falls back to the unfolded text; search still
		// works for exact-accent queries.
		folded = joined
	}
	return strings.Join(strings.Fields(folded), " ")
}
