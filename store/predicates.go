package store

import (
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

// Typed field handles for the columns the finders and services filter on.
// Each handle qualifies itself with the selector's table, so predicates
// built from them compose with joins.
var (
	// ID is the primary-key handle shared by every table.
	ID = sql.Int64Field[Predicate](colID)

	// Foreign keys.
	CompanyID   = sql.Int64Field[Predicate]("company_id")
	ContactID   = sql.Int64Field[Predicate]("contact_id")
	StaffID     = sql.Int64Field[Predicate]("staff_id")
	CurrencyID  = sql.Int64Field[Predicate]("currency_id")
	CountryID   = sql.Int64Field[Predicate]("country_id")
	CityID      = sql.Int64Field[Predicate]("city_id")
	QuoteID     = sql.Int64Field[Predicate]("quote_id")
	OrderID     = sql.Int64Field[Predicate]("order_id")
	ProductID   = sql.Int64Field[Predicate]("product_id")
	ParentID    = sql.Int64Field[Predicate]("parent_id")
	ComponentID = sql.Int64Field[Predicate]("component_id")
	EntityID    = sql.Int64Field[Predicate]("entity_id")

	// Flags.
	IsActive  = sql.BoolField[Predicate]("is_active")
	IsDefault = sql.BoolField[Predicate]("is_default")
	IsMain    = sql.BoolField[Predicate]("is_main")
	IsExport  = sql.BoolField[Predicate]("is_export")
	IsAdmin   = sql.BoolField[Predicate]("is_admin")
	Deleted   = sql.BoolField[Predicate](colIsDeleted)

	// Identifying strings.
	Code           = sql.StringField[Predicate]("code")
	Name           = sql.StringField[Predicate]("name")
	Username       = sql.StringField[Predicate]("username")
	Trigram        = sql.StringField[Predicate]("trigram")
	Rut            = sql.StringField[Predicate]("rut")
	Reference      = sql.StringField[Predicate]("reference")
	SearchText     = sql.StringField[Predicate]("search_text")
	Status         = sql.StringField[Predicate]("status")
	PaymentStatus  = sql.StringField[Predicate]("payment_status")
	Family         = sql.StringField[Predicate]("family")
	EntityType     = sql.StringField[Predicate]("entity_type")
	Category       = sql.StringField[Predicate]("category")
	QuoteNumber    = sql.StringField[Predicate]("quote_number")
	OrderNumber    = sql.StringField[Predicate]("order_number")
	DeliveryNumber = sql.StringField[Predicate]("delivery_number")
	InvoiceNumber  = sql.StringField[Predicate]("invoice_number")

	// Enumerated columns.
	ProductType = sql.EnumField[Predicate, domain.ProductType]("product_type")
	PriceMode   = sql.EnumField[Predicate, domain.PriceMode]("price_calculation_mode")
	OrderType   = sql.EnumField[Predicate, domain.OrderType]("order_type")
	AddressType = sql.EnumField[Predicate, domain.AddressType]("address_type")
	Priority    = sql.EnumField[Predicate, domain.Priority]("priority")

	// Dates.
	QuoteDate     = sql.TimeField[Predicate]("quote_date")
	OrderDate     = sql.TimeField[Predicate]("order_date")
	PromisedDate  = sql.TimeField[Predicate]("promised_date")
	CompletedDate = sql.TimeField[Predicate]("completed_date")
	DeliveryDate  = sql.TimeField[Predicate]("delivery_date")
	InvoiceDate   = sql.TimeField[Predicate]("invoice_date")
	DueDate       = sql.TimeField[Predicate]("due_date")
	CreatedAt     = sql.TimeField[Predicate](colCreatedAt)
)

// ByID matches the primary key.
func ByID(id int64) Predicate { return ID.EQ(id) }

// ByIDs matches any of the given primary keys.
func ByIDs(ids ...int64) Predicate { return ID.In(ids...) }
