package store

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/audit"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/dialect/sql/schema"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/schema/field"
)

// decimalType renders the exact numeric columns per dialect. SQLite keeps
// them as text so values round-trip through shopspring/decimal without
// float drift.
var decimalType = map[string]string{
	dialect.Postgres: "numeric(18,4)",
	dialect.MySQL:    "decimal(18,4)",
	dialect.SQLite:   "text",
}

// Migrate creates the tables that do not exist yet, with their indexes
// and foreign-key constraints. Existing tables are left untouched; there
// is no diffing.
func (s *Store) Migrate(ctx context.Context, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(s.drv, opts...)
	if err != nil {
		return folio.NewInternalError(err)
	}
	tables := Tables()
	if err := m.Create(ctx, tables...); err != nil {
		return folio.NewInternalError(err)
	}
	s.log.Info("schema ready", "dialect", s.Dialect(), "tables", len(tables))
	return nil
}

// Seed inserts the seed rows the services depend on: the document status
// catalog, one row per family and code in workflow order. Rows that
// already exist are skipped, so Seed is safe to run on every start. It
// runs as the system principal.
func (s *Store) Seed(ctx context.Context) error {
	return s.RunInSession(ctx, audit.New(0), func(ctx context.Context, sess *Session) error {
		now := sess.Audit().Now()
		table := TableFor("DocumentStatus")
		for _, family := range []domain.DocumentFamily{
			domain.FamilyQuote, domain.FamilyOrder, domain.FamilyDelivery,
			domain.FamilySIIInvoice, domain.FamilyExportInvoice,
		} {
			for sort, code := range domain.DefaultStatuses[family] {
				query, args := sql.Dialect(s.Dialect()).
					Insert(table).
					Columns("family", "code", "name", "sort", "is_active",
						colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy).
					Values(string(family), code, statusName(code), sort, true, now, now, int64(0), int64(0)).
					OnConflictDoNothing().
					Query()
				if err := sess.tx.Exec(ctx, query, args, nil); err != nil {
					return mapError("document status", err)
				}
			}
		}
		return nil
	})
}

// statusName derives a display name from a status code, e.g.
// "IN_PROGRESS" becomes "In progress".
func statusName(code string) string {
	name := strings.ReplaceAll(strings.ToLower(code), "_", " ")
	return strings.ToUpper(name[:1]) + name[1:]
}

// Tables returns every table of the schema in dependency order,
// referenced tables first. store/migrate owns all DDL; the sequence
// allocator relies on the sequences table declared here.
func Tables() []*schema.Table {
	var (
		principals   = principalsTable()
		countries    = lookupTable("Country")
		cities       = citiesTable(countries)
		currencies   = currenciesTable()
		units        = lookupTable("Unit")
		incoterms    = lookupTable("Incoterm")
		companyTypes = lookupTable("CompanyType")
		matters      = lookupTable("Matter")
		familyTypes  = lookupTable("FamilyType")
		salesTypes   = lookupTable("SalesType")
		statuses     = documentStatusesTable()
		payments     = paymentConditionsTable()
		departments  = departmentsTable()
		companies    = companiesTable(companyTypes, countries, cities)
		ruts         = companyRutsTable(companies)
		plants       = plantsTable(companies, cities)
		contacts     = contactsTable(companies, departments)
		addresses    = addressesTable(companies, cities)
		products     = productsTable(units, familyTypes, matters, salesTypes, countries)
		components   = productComponentsTable(products)
		quotes       = quotesTable(companies, contacts, principals, currencies, payments)
		quoteLines   = lineTable("QuoteLine", "quote_id", quotes, products)
		orders       = ordersTable(quotes, companies, contacts, principals, currencies, incoterms, payments)
		orderLines   = lineTable("OrderLine", "order_id", orders, products)
		deliveries   = deliveriesTable(orders, companies, principals, currencies)
		siiInvoices  = siiInvoicesTable(companies, principals, currencies, payments)
		exports      = exportInvoicesTable(companies, principals, currencies, payments, countries, incoterms)
		notes        = notesTable()
		sequences    = sequencesTable()
	)
	return []*schema.Table{
		principals, countries, cities, currencies, units, incoterms,
		companyTypes, matters, familyTypes, salesTypes, statuses, payments,
		departments, companies, ruts, plants, contacts, addresses,
		products, components, quotes, quoteLines, orders, orderLines,
		deliveries, siiInvoices, exports, notes, sequences,
	}
}

// baseTable starts a table for the entity with the auto-increment id key.
func baseTable(entity string) *schema.Table {
	t := schema.NewTable(TableFor(entity))
	t.AddPrimary(&schema.Column{Name: colID, Type: field.TypeInt64, Increment: true})
	return t
}

func strColumn(name string, size int64) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: size}
}

func decimalColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeOther, SchemaType: decimalType, Default: schema.Expr("0")}
}

// nullDecimalColumn backs the decimal.NullDecimal fields.
func nullDecimalColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeOther, SchemaType: decimalType, Nullable: true}
}

func boolColumn(name string, def bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: def}
}

func fkColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Nullable: nullable}
}

func dateColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime, Nullable: nullable}
}

// auditColumns appends the four stamp columns every entity table ends
// with. created_by/updated_by hold principal ids without a constraint:
// the zero system principal has no row.
func auditColumns(t *schema.Table) {
	t.AddColumn(dateColumn(colCreatedAt, false))
	t.AddColumn(dateColumn(colUpdatedAt, false))
	t.AddColumn(&schema.Column{Name: colCreatedBy, Type: field.TypeInt64})
	t.AddColumn(&schema.Column{Name: colUpdatedBy, Type: field.TypeInt64})
}

// ref wires a foreign key on an already-added column.
func ref(t *schema.Table, c *schema.Column, refTable *schema.Table, onDelete schema.ReferenceOption) {
	t.AddForeignKey(&schema.ForeignKey{
		Columns:    []*schema.Column{c},
		RefTable:   refTable,
		RefColumns: []*schema.Column{refTable.PrimaryKey[0]},
		OnDelete:   onDelete,
	})
}

// totalsColumns appends the monetary block shared by all documents.
func totalsColumns(t *schema.Table) {
	t.AddColumn(decimalColumn("subtotal"))
	t.AddColumn(decimalColumn("tax_percentage"))
	t.AddColumn(decimalColumn("tax_amount"))
	t.AddColumn(decimalColumn("total"))
}

// lookupTable declares a code/name reference table.
func lookupTable(entity string) *schema.Table {
	t := baseTable(entity)
	code := strColumn("code", 16)
	code.Unique = true
	t.AddColumn(code)
	t.AddColumn(strColumn("name", 128))
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	return t
}

func principalsTable() *schema.Table {
	t := baseTable("Principal")
	username := strColumn("username", 64)
	username.Unique = true
	t.AddColumn(username)
	t.AddColumn(strColumn("email", 255))
	t.AddColumn(strColumn("first_name", 128))
	t.AddColumn(strColumn("last_name", 128))
	t.AddColumn(strColumn("trigram", 3))
	t.AddColumn(strColumn("phone", 32))
	t.AddColumn(strColumn("position", 128))
	t.AddColumn(boolColumn("is_active", true))
	t.AddColumn(boolColumn("is_admin", false))
	auditColumns(t)
	return t
}

func citiesTable(countries *schema.Table) *schema.Table {
	t := baseTable("City")
	t.AddColumn(strColumn("name", 128))
	country := fkColumn("country_id", false)
	t.AddColumn(country)
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	ref(t, country, countries, schema.Restrict)
	t.AddIndex("cities_country_id", false, []string{"country_id"})
	return t
}

func currenciesTable() *schema.Table {
	t := baseTable("Currency")
	code := strColumn("code", 3)
	code.Unique = true
	t.AddColumn(code)
	t.AddColumn(strColumn("name", 128))
	t.AddColumn(strColumn("symbol", 8))
	t.AddColumn(&schema.Column{Name: "decimal_places", Type: field.TypeInt, Default: 2})
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	return t
}

func documentStatusesTable() *schema.Table {
	t := baseTable("DocumentStatus")
	t.AddColumn(strColumn("family", 32))
	t.AddColumn(strColumn("code", 32))
	t.AddColumn(strColumn("name", 128))
	t.AddColumn(&schema.Column{Name: "sort", Type: field.TypeInt, Default: 0})
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	t.AddIndex("document_statuses_family_code", true, []string{"family", "code"})
	return t
}

func paymentConditionsTable() *schema.Table {
	t := baseTable("PaymentCondition")
	code := strColumn("code", 32)
	code.Unique = true
	t.AddColumn(code)
	t.AddColumn(strColumn("name", 128))
	t.AddColumn(&schema.Column{Name: "days_to_pay", Type: field.TypeInt64, Default: 0})
	t.AddColumn(decimalColumn("advance_percentage"))
	t.AddColumn(decimalColumn("on_delivery_percentage"))
	t.AddColumn(decimalColumn("after_delivery_percentage"))
	t.AddColumn(&schema.Column{Name: "days_after_delivery", Type: field.TypeInt64, Default: 0})
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	return t
}

func departmentsTable() *schema.Table {
	t := baseTable("Department")
	name := strColumn("name", 128)
	name.Unique = true
	t.AddColumn(name)
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	return t
}

func companiesTable(companyTypes, countries, cities *schema.Table) *schema.Table {
	t := baseTable("Company")
	t.AddColumn(strColumn("name", 255))
	trigram := strColumn("trigram", 3)
	trigram.Unique = true
	t.AddColumn(trigram)
	t.AddColumn(strColumn("main_address", 255))
	t.AddColumn(strColumn("phone", 32))
	t.AddColumn(strColumn("website", 255))
	t.AddColumn(strColumn("intra_eu_vat", 32))
	companyType := fkColumn("company_type_id", false)
	t.AddColumn(companyType)
	country := fkColumn("country_id", true)
	t.AddColumn(country)
	city := fkColumn("city_id", true)
	t.AddColumn(city)
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	ref(t, companyType, companyTypes, schema.Restrict)
	ref(t, country, countries, schema.SetNull)
	ref(t, city, cities, schema.SetNull)
	t.AddIndex("companies_name", false, []string{"name"})
	return t
}

func companyRutsTable(companies *schema.Table) *schema.Table {
	t := baseTable("CompanyRut")
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	rut := strColumn("rut", 16)
	rut.Unique = true
	t.AddColumn(rut)
	t.AddColumn(boolColumn("is_main", false))
	auditColumns(t)
	ref(t, company, companies, schema.Cascade)
	t.AddIndex("company_ruts_company_id", false, []string{"company_id"})
	return t
}

func plantsTable(companies, cities *schema.Table) *schema.Table {
	t := baseTable("Plant")
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	t.AddColumn(strColumn("name", 128))
	t.AddColumn(strColumn("address", 255))
	t.AddColumn(strColumn("phone", 32))
	t.AddColumn(strColumn("email", 255))
	city := fkColumn("city_id", true)
	t.AddColumn(city)
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	ref(t, company, companies, schema.Cascade)
	ref(t, city, cities, schema.SetNull)
	t.AddIndex("plants_company_id", false, []string{"company_id"})
	return t
}

func contactsTable(companies, departments *schema.Table) *schema.Table {
	t := baseTable("Contact")
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	t.AddColumn(strColumn("first_name", 128))
	t.AddColumn(strColumn("last_name", 128))
	t.AddColumn(strColumn("email", 255))
	t.AddColumn(strColumn("phone", 32))
	t.AddColumn(strColumn("mobile", 32))
	t.AddColumn(strColumn("position", 128))
	department := fkColumn("department_id", true)
	t.AddColumn(department)
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	ref(t, company, companies, schema.Cascade)
	ref(t, department, departments, schema.SetNull)
	t.AddIndex("contacts_company_id", false, []string{"company_id"})
	return t
}

func addressesTable(companies, cities *schema.Table) *schema.Table {
	t := baseTable("Address")
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	t.AddColumn(strColumn("address_type", 16))
	t.AddColumn(strColumn("street", 255))
	city := fkColumn("city_id", true)
	t.AddColumn(city)
	t.AddColumn(strColumn("postal_code", 16))
	t.AddColumn(boolColumn("is_default", false))
	t.AddColumn(boolColumn("is_active", true))
	auditColumns(t)
	ref(t, company, companies, schema.Cascade)
	ref(t, city, cities, schema.SetNull)
	t.AddIndex("addresses_company_id", false, []string{"company_id"})
	return t
}

func productsTable(units, familyTypes, matters, salesTypes, countries *schema.Table) *schema.Table {
	t := baseTable("Product")
	reference := strColumn("reference", 64)
	reference.Unique = true
	t.AddColumn(reference)
	t.AddColumn(strColumn("product_type", 16))
	t.AddColumn(strColumn("designation_es", 255))
	t.AddColumn(strColumn("designation_en", 255))
	t.AddColumn(strColumn("designation_fr", 255))
	t.AddColumn(strColumn("short_designation", 128))
	unit := fkColumn("unit_id", true)
	t.AddColumn(unit)
	familyType := fkColumn("family_type_id", true)
	t.AddColumn(familyType)
	matter := fkColumn("matter_id", true)
	t.AddColumn(matter)
	salesType := fkColumn("sales_type_id", true)
	t.AddColumn(salesType)
	origin := fkColumn("origin_country_id", true)
	t.AddColumn(origin)
	t.AddColumn(decimalColumn("purchase_price"))
	t.AddColumn(decimalColumn("cost_price"))
	t.AddColumn(decimalColumn("sale_price"))
	t.AddColumn(nullDecimalColumn("sale_price_eur"))
	t.AddColumn(decimalColumn("margin_percentage"))
	t.AddColumn(strColumn("price_calculation_mode", 16))
	t.AddColumn(decimalColumn("stock_quantity"))
	t.AddColumn(decimalColumn("minimum_stock"))
	t.AddColumn(strColumn("stock_location", 64))
	t.AddColumn(nullDecimalColumn("net_weight"))
	t.AddColumn(nullDecimalColumn("gross_weight"))
	t.AddColumn(nullDecimalColumn("length_mm"))
	t.AddColumn(nullDecimalColumn("width_mm"))
	t.AddColumn(nullDecimalColumn("height_mm"))
	t.AddColumn(nullDecimalColumn("volume_m3"))
	t.AddColumn(strColumn("search_text", 1024))
	t.AddColumn(boolColumn("is_active", true))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, unit, units, schema.SetNull)
	ref(t, familyType, familyTypes, schema.SetNull)
	ref(t, matter, matters, schema.SetNull)
	ref(t, salesType, salesTypes, schema.SetNull)
	ref(t, origin, countries, schema.SetNull)
	t.AddIndex("products_product_type", false, []string{"product_type"})
	return t
}

func productComponentsTable(products *schema.Table) *schema.Table {
	t := baseTable("ProductComponent")
	parent := fkColumn("parent_id", false)
	t.AddColumn(parent)
	component := fkColumn("component_id", false)
	t.AddColumn(component)
	t.AddColumn(decimalColumn("quantity"))
	t.AddColumn(strColumn("notes", 512))
	auditColumns(t)
	ref(t, parent, products, schema.Cascade)
	ref(t, component, products, schema.Cascade)
	t.AddIndex("product_components_parent_component", true, []string{"parent_id", "component_id"})
	t.AddIndex("product_components_component_id", false, []string{"component_id"})
	return t
}

func quotesTable(companies, contacts, principals, currencies, payments *schema.Table) *schema.Table {
	t := baseTable("Quote")
	number := strColumn("quote_number", 32)
	number.Unique = true
	t.AddColumn(number)
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	contact := fkColumn("contact_id", true)
	t.AddColumn(contact)
	staff := fkColumn("staff_id", false)
	t.AddColumn(staff)
	currency := fkColumn("currency_id", false)
	t.AddColumn(currency)
	payment := fkColumn("payment_condition_id", true)
	t.AddColumn(payment)
	t.AddColumn(strColumn("status", 32))
	t.AddColumn(dateColumn("quote_date", false))
	t.AddColumn(dateColumn("valid_until", true))
	totalsColumns(t)
	t.AddColumn(strColumn("notes", 2048))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, company, companies, schema.Restrict)
	ref(t, contact, contacts, schema.SetNull)
	ref(t, staff, principals, schema.Restrict)
	ref(t, currency, currencies, schema.Restrict)
	ref(t, payment, payments, schema.SetNull)
	t.AddIndex("quotes_company_id", false, []string{"company_id"})
	t.AddIndex("quotes_status", false, []string{"status"})
	t.AddIndex("quotes_quote_date", false, []string{"quote_date"})
	return t
}

// lineTable declares a document line table. Quote and order lines share
// the shape; only the owning foreign key differs.
func lineTable(entity, parentCol string, parent, products *schema.Table) *schema.Table {
	t := baseTable(entity)
	parentFK := fkColumn(parentCol, false)
	t.AddColumn(parentFK)
	product := fkColumn("product_id", false)
	t.AddColumn(product)
	t.AddColumn(&schema.Column{Name: "sequence", Type: field.TypeInt, Default: 0})
	t.AddColumn(decimalColumn("quantity"))
	t.AddColumn(decimalColumn("unit_price"))
	t.AddColumn(decimalColumn("discount"))
	t.AddColumn(decimalColumn("subtotal"))
	auditColumns(t)
	ref(t, parentFK, parent, schema.Cascade)
	ref(t, product, products, schema.Restrict)
	t.AddIndex(t.Name+"_"+parentCol, false, []string{parentCol})
	return t
}

func ordersTable(quotes, companies, contacts, principals, currencies, incoterms, payments *schema.Table) *schema.Table {
	t := baseTable("Order")
	number := strColumn("order_number", 32)
	number.Unique = true
	t.AddColumn(number)
	t.AddColumn(strColumn("order_type", 16))
	t.AddColumn(boolColumn("is_export", false))
	quote := fkColumn("quote_id", true)
	t.AddColumn(quote)
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	contact := fkColumn("contact_id", true)
	t.AddColumn(contact)
	staff := fkColumn("staff_id", false)
	t.AddColumn(staff)
	currency := fkColumn("currency_id", false)
	t.AddColumn(currency)
	incoterm := fkColumn("incoterm_id", true)
	t.AddColumn(incoterm)
	payment := fkColumn("payment_condition_id", true)
	t.AddColumn(payment)
	t.AddColumn(strColumn("status", 32))
	t.AddColumn(dateColumn("order_date", false))
	t.AddColumn(dateColumn("promised_date", true))
	t.AddColumn(dateColumn("completed_date", true))
	totalsColumns(t)
	t.AddColumn(strColumn("notes", 2048))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, quote, quotes, schema.SetNull)
	ref(t, company, companies, schema.Restrict)
	ref(t, contact, contacts, schema.SetNull)
	ref(t, staff, principals, schema.Restrict)
	ref(t, currency, currencies, schema.Restrict)
	ref(t, incoterm, incoterms, schema.SetNull)
	ref(t, payment, payments, schema.SetNull)
	t.AddIndex("orders_company_id", false, []string{"company_id"})
	t.AddIndex("orders_status", false, []string{"status"})
	t.AddIndex("orders_order_date", false, []string{"order_date"})
	t.AddIndex("orders_quote_id", false, []string{"quote_id"})
	return t
}

func deliveriesTable(orders, companies, principals, currencies *schema.Table) *schema.Table {
	t := baseTable("DeliveryOrder")
	number := strColumn("delivery_number", 32)
	number.Unique = true
	t.AddColumn(number)
	order := fkColumn("order_id", false)
	t.AddColumn(order)
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	staff := fkColumn("staff_id", false)
	t.AddColumn(staff)
	currency := fkColumn("currency_id", false)
	t.AddColumn(currency)
	t.AddColumn(strColumn("status", 32))
	t.AddColumn(dateColumn("delivery_date", true))
	t.AddColumn(dateColumn("actual_delivery_date", true))
	t.AddColumn(strColumn("delivery_address", 255))
	t.AddColumn(strColumn("signature_name", 128))
	t.AddColumn(strColumn("signature_id", 32))
	t.AddColumn(dateColumn("signature_at", true))
	totalsColumns(t)
	t.AddColumn(strColumn("notes", 2048))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, order, orders, schema.Restrict)
	ref(t, company, companies, schema.Restrict)
	ref(t, staff, principals, schema.Restrict)
	ref(t, currency, currencies, schema.Restrict)
	t.AddIndex("delivery_orders_order_id", false, []string{"order_id"})
	t.AddIndex("delivery_orders_company_id", false, []string{"company_id"})
	return t
}

func siiInvoicesTable(companies, principals, currencies, payments *schema.Table) *schema.Table {
	t := baseTable("SIIInvoice")
	number := strColumn("invoice_number", 32)
	number.Unique = true
	t.AddColumn(number)
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	staff := fkColumn("staff_id", false)
	t.AddColumn(staff)
	currency := fkColumn("currency_id", false)
	t.AddColumn(currency)
	payment := fkColumn("payment_condition_id", true)
	t.AddColumn(payment)
	t.AddColumn(dateColumn("invoice_date", false))
	t.AddColumn(dateColumn("due_date", true))
	t.AddColumn(strColumn("payment_status", 32))
	totalsColumns(t)
	t.AddColumn(strColumn("notes", 2048))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, company, companies, schema.Restrict)
	ref(t, staff, principals, schema.Restrict)
	ref(t, currency, currencies, schema.Restrict)
	ref(t, payment, payments, schema.SetNull)
	t.AddIndex("sii_invoices_company_id", false, []string{"company_id"})
	t.AddIndex("sii_invoices_payment_status", false, []string{"payment_status"})
	return t
}

func exportInvoicesTable(companies, principals, currencies, payments, countries, incoterms *schema.Table) *schema.Table {
	t := baseTable("ExportInvoice")
	number := strColumn("invoice_number", 32)
	number.Unique = true
	t.AddColumn(number)
	company := fkColumn("company_id", false)
	t.AddColumn(company)
	staff := fkColumn("staff_id", false)
	t.AddColumn(staff)
	currency := fkColumn("currency_id", false)
	t.AddColumn(currency)
	payment := fkColumn("payment_condition_id", true)
	t.AddColumn(payment)
	destination := fkColumn("destination_country_id", false)
	t.AddColumn(destination)
	incoterm := fkColumn("incoterm_id", true)
	t.AddColumn(incoterm)
	t.AddColumn(dateColumn("invoice_date", false))
	t.AddColumn(dateColumn("due_date", true))
	t.AddColumn(strColumn("payment_status", 32))
	totalsColumns(t)
	t.AddColumn(strColumn("notes", 2048))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	ref(t, company, companies, schema.Restrict)
	ref(t, staff, principals, schema.Restrict)
	ref(t, currency, currencies, schema.Restrict)
	ref(t, payment, payments, schema.SetNull)
	ref(t, destination, countries, schema.Restrict)
	ref(t, incoterm, incoterms, schema.SetNull)
	t.AddIndex("export_invoices_company_id", false, []string{"company_id"})
	t.AddIndex("export_invoices_payment_status", false, []string{"payment_status"})
	return t
}

// notesTable has no foreign keys: the target reference is polymorphic
// (entity_type + entity_id), so integrity is the services' concern.
func notesTable() *schema.Table {
	t := baseTable("Note")
	t.AddColumn(strColumn("entity_type", 32))
	t.AddColumn(&schema.Column{Name: "entity_id", Type: field.TypeInt64})
	t.AddColumn(strColumn("title", 255))
	t.AddColumn(strColumn("content", 4096))
	t.AddColumn(strColumn("priority", 16))
	t.AddColumn(strColumn("category", 64))
	t.AddColumn(boolColumn(colIsDeleted, false))
	auditColumns(t)
	t.AddIndex("notes_entity_type_entity_id", false, []string{"entity_type", "entity_id"})
	return t
}

// sequencesTable backs the gap-free number allocator. No id column: the
// bucket key (name, year, prefix) is the primary key, and rows carry no
// audit stamps because they are infrastructure, not entities.
func sequencesTable() *schema.Table {
	t := schema.NewTable("sequences")
	name := strColumn("name", 32)
	year := &schema.Column{Name: "year", Type: field.TypeInt}
	prefix := strColumn("prefix", 16)
	t.AddPrimary(name)
	t.AddPrimary(year)
	t.AddPrimary(prefix)
	t.AddColumn(&schema.Column{Name: "last_value", Type: field.TypeInt64, Default: 0})
	return t
}
