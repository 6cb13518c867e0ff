package store

import (
	"context"
	"strings"
	"time"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

// documentRepo carries the finders shared by the numbered commercial
// documents. numberCol is the unique document number column, dateCol the
// issue date the listings order by.
type documentRepo[T domain.Entity] struct {
	*Repository[T]
	numberCol string
	dateCol   string
}

// ByNumber returns the document with the number, NotFound when absent.
// Numbers are stored uppercase.
func (r *documentRepo[T]) ByNumber(ctx context.Context, number string) (T, error) {
	var zero T
	number = strings.ToUpper(strings.TrimSpace(number))
	rows, err := r.Find(ctx, Query{
		Predicates: []Predicate{func(s *sql.Selector) { s.Where(sql.EQ(s.C(r.numberCol), number)) }},
		Limit:      1,
	})
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, folio.NewNotFoundErrorWithID(r.meta.label, number)
	}
	return rows[0], nil
}

// ForCompany returns the company's documents, newest first.
func (r *documentRepo[T]) ForCompany(ctx context.Context, companyID int64) ([]T, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CompanyID.EQ(companyID)},
		OrderBy:    r.dateCol,
		Descending: true,
	})
}

// Recent returns the latest documents across all companies.
func (r *documentRepo[T]) Recent(ctx context.Context, limit int) ([]T, error) {
	return r.Find(ctx, Query{OrderBy: r.dateCol, Descending: true, Limit: limit})
}

// LineRepo serves a document line table. parentCol names the owning
// document's foreign key; parentOf extracts it from a loaded line.
type LineRepo[T domain.Entity] struct {
	*Repository[T]
	parentCol string
	parentOf  func(T) int64
}

func newLineRepo[T domain.Entity](s *Session, m meta[T], parentCol string, parentOf func(T) int64) *LineRepo[T] {
	return &LineRepo[T]{newRepository(s, m), parentCol, parentOf}
}

func (r *LineRepo[T]) byParent(parentID int64) Predicate {
	return func(s *sql.Selector) { s.Where(sql.EQ(s.C(r.parentCol), parentID)) }
}

// ForParent returns the document's lines in sequence order.
func (r *LineRepo[T]) ForParent(ctx context.Context, parentID int64) ([]T, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{r.byParent(parentID)},
		OrderBy:    "sequence",
	})
}

// ForParents returns the lines of several documents in one statement,
// grouped by document id, each group in sequence order.
func (r *LineRepo[T]) ForParents(ctx context.Context, parentIDs []int64) (map[int64][]T, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.Find(ctx, Query{
		Predicates: []Predicate{func(s *sql.Selector) {
			ids := make([]any, len(parentIDs))
			for i, id := range parentIDs {
				ids[i] = id
			}
			s.Where(sql.In(s.C(r.parentCol), ids...))
		}},
		OrderBy: "sequence",
	})
	if err != nil {
		return nil, err
	}
	return GroupByKey(rows, r.parentOf), nil
}

// DeleteForParent removes the document's lines.
func (r *LineRepo[T]) DeleteForParent(ctx context.Context, parentID int64) (int, error) {
	return r.DeleteMany(ctx, Query{Predicates: []Predicate{r.byParent(parentID)}})
}

func quoteMeta() meta[*domain.Quote] {
	return meta[*domain.Quote]{
		label:      "quote",
		table:      TableFor("Quote"),
		softDelete: true,
		columns: []string{"quote_number", "company_id", "contact_id", "staff_id", "currency_id",
			"payment_condition_id", "status", "quote_date", "valid_until",
			"subtotal", "tax_percentage", "tax_amount", "total", "notes", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Quote, error) {
			q := new(domain.Quote)
			var contact, payment sql.NullInt64
			var validUntil sql.NullTime
			err := rows.Scan(&q.ID, &q.Number, &q.CompanyID, &contact, &q.StaffID, &q.CurrencyID,
				&payment, &q.Status, &q.QuoteDate, &validUntil,
				&q.Subtotal, &q.TaxPercentage, &q.TaxAmount, &q.Total, &q.Notes, &q.IsDeleted,
				&q.CreatedAt, &q.UpdatedAt, &q.CreatedBy, &q.UpdatedBy)
			q.ContactID = contact.Int64
			q.PaymentConditionID = payment.Int64
			q.ValidUntil = timePtr(validUntil)
			return q, err
		},
		values: func(q *domain.Quote) []any {
			return []any{q.Number, q.CompanyID, nullID(q.ContactID), q.StaffID, q.CurrencyID,
				nullID(q.PaymentConditionID), q.Status, q.QuoteDate, nullTime(q.ValidUntil),
				q.Subtotal, q.TaxPercentage, q.TaxAmount, q.Total, q.Notes, q.IsDeleted,
				q.CreatedAt, q.UpdatedAt, q.CreatedBy, q.UpdatedBy}
		},
	}
}

func quoteLineMeta() meta[*domain.QuoteLine] {
	return meta[*domain.QuoteLine]{
		label: "quote line",
		table: TableFor("QuoteLine"),
		columns: []string{"quote_id", "product_id", "sequence", "quantity", "unit_price",
			"discount", "subtotal",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.QuoteLine, error) {
			l := new(domain.QuoteLine)
			err := rows.Scan(&l.ID, &l.QuoteID, &l.ProductID, &l.Sequence, &l.Quantity, &l.UnitPrice,
				&l.Discount, &l.Subtotal,
				&l.CreatedAt, &l.UpdatedAt, &l.CreatedBy, &l.UpdatedBy)
			return l, err
		},
		values: func(l *domain.QuoteLine) []any {
			return []any{l.QuoteID, l.ProductID, l.Sequence, l.Quantity, l.UnitPrice,
				l.Discount, l.Subtotal,
				l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.UpdatedBy}
		},
	}
}

// QuoteRepo serves the quotes table.
type QuoteRepo struct {
	documentRepo[*domain.Quote]
}

// LoadLines fills Lines on the given quotes with one statement.
func (r *QuoteRepo) LoadLines(ctx context.Context, quotes ...*domain.Quote) error {
	ids := make([]int64, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
	}
	grouped, err := r.s.QuoteLines.ForParents(ctx, ids)
	if err != nil {
		return err
	}
	for _, q := range quotes {
		q.Lines = grouped[q.ID]
	}
	return nil
}

// Expiring returns quotes in the given status whose valid_until falls on
// or before the deadline.
func (r *QuoteRepo) Expiring(ctx context.Context, status string, deadline time.Time) ([]*domain.Quote, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			Status.EQ(status),
			func(s *sql.Selector) {
				s.Where(sql.And(
					sql.NotNull(s.C("valid_until")),
					sql.LTE(s.C("valid_until"), domain.DateOnly(deadline)),
				))
			},
		},
		OrderBy: "valid_until",
	})
}

func orderMeta() meta[*domain.Order] {
	return meta[*domain.Order]{
		label:      "order",
		table:      TableFor("Order"),
		softDelete: true,
		columns: []string{"order_number", "order_type", "is_export", "quote_id",
			"company_id", "contact_id", "staff_id", "currency_id", "incoterm_id",
			"payment_condition_id", "status", "order_date", "promised_date", "completed_date",
			"subtotal", "tax_percentage", "tax_amount", "total", "notes", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Order, error) {
			o := new(domain.Order)
			var quote, contact, incoterm, payment sql.NullInt64
			var promised, completed sql.NullTime
			err := rows.Scan(&o.ID, &o.Number, &o.Type, &o.IsExport, &quote,
				&o.CompanyID, &contact, &o.StaffID, &o.CurrencyID, &incoterm,
				&payment, &o.Status, &o.OrderDate, &promised, &completed,
				&o.Subtotal, &o.TaxPercentage, &o.TaxAmount, &o.Total, &o.Notes, &o.IsDeleted,
				&o.CreatedAt, &o.UpdatedAt, &o.CreatedBy, &o.UpdatedBy)
			o.QuoteID = quote.Int64
			o.ContactID = contact.Int64
			o.IncotermID = incoterm.Int64
			o.PaymentConditionID = payment.Int64
			o.PromisedDate = timePtr(promised)
			o.CompletedDate = timePtr(completed)
			return o, err
		},
		values: func(o *domain.Order) []any {
			return []any{o.Number, o.Type, o.IsExport, nullID(o.QuoteID),
				o.CompanyID, nullID(o.ContactID), o.StaffID, o.CurrencyID, nullID(o.IncotermID),
				nullID(o.PaymentConditionID), o.Status, o.OrderDate, nullTime(o.PromisedDate), nullTime(o.CompletedDate),
				o.Subtotal, o.TaxPercentage, o.TaxAmount, o.Total, o.Notes, o.IsDeleted,
				o.CreatedAt, o.UpdatedAt, o.CreatedBy, o.UpdatedBy}
		},
	}
}

func orderLineMeta() meta[*domain.OrderLine] {
	return meta[*domain.OrderLine]{
		label: "order line",
		table: TableFor("OrderLine"),
		columns: []string{"order_id", "product_id", "sequence", "quantity", "unit_price",
			"discount", "subtotal",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.OrderLine, error) {
			l := new(domain.OrderLine)
			err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Sequence, &l.Quantity, &l.UnitPrice,
				&l.Discount, &l.Subtotal,
				&l.CreatedAt, &l.UpdatedAt, &l.CreatedBy, &l.UpdatedBy)
			return l, err
		},
		values: func(l *domain.OrderLine) []any {
			return []any{l.OrderID, l.ProductID, l.Sequence, l.Quantity, l.UnitPrice,
				l.Discount, l.Subtotal,
				l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.UpdatedBy}
		},
	}
}

// OrderRepo serves the orders table.
type OrderRepo struct {
	documentRepo[*domain.Order]
}

// LoadLines fills Lines on the given orders with one statement.
func (r *OrderRepo) LoadLines(ctx context.Context, orders ...*domain.Order) error {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	grouped, err := r.s.OrderLines.ForParents(ctx, ids)
	if err != nil {
		return err
	}
	for _, o := range orders {
		o.Lines = grouped[o.ID]
	}
	return nil
}

// Overdue returns orders whose promised date lies before today and that
// have no completion date, oldest promise first. Mirrors
// domain.Order.IsOverdue.
func (r *OrderRepo) Overdue(ctx context.Context, today time.Time) ([]*domain.Order, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			PromisedDate.NotNull(),
			PromisedDate.LT(domain.DateOnly(today)),
			CompletedDate.IsNull(),
		},
		OrderBy: "promised_date",
	})
}

// FromQuote returns the orders created from the quote.
func (r *OrderRepo) FromQuote(ctx context.Context, quoteID int64) ([]*domain.Order, error) {
	return r.Find(ctx, Query{Predicates: []Predicate{QuoteID.EQ(quoteID)}})
}

func deliveryMeta() meta[*domain.DeliveryOrder] {
	return meta[*domain.DeliveryOrder]{
		label:      "delivery order",
		table:      TableFor("DeliveryOrder"),
		softDelete: true,
		columns: []string{"delivery_number", "order_id", "company_id", "staff_id", "currency_id",
			"status", "delivery_date", "actual_delivery_date", "delivery_address",
			"signature_name", "signature_id", "signature_at",
			"subtotal", "tax_percentage", "tax_amount", "total", "notes", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.DeliveryOrder, error) {
			d := new(domain.DeliveryOrder)
			var planned, actual, signedAt sql.NullTime
			err := rows.Scan(&d.ID, &d.Number, &d.OrderID, &d.CompanyID, &d.StaffID, &d.CurrencyID,
				&d.Status, &planned, &actual, &d.DeliveryAddress,
				&d.SignatureName, &d.SignatureID, &signedAt,
				&d.Subtotal, &d.TaxPercentage, &d.TaxAmount, &d.Total, &d.Notes, &d.IsDeleted,
				&d.CreatedAt, &d.UpdatedAt, &d.CreatedBy, &d.UpdatedBy)
			d.DeliveryDate = timePtr(planned)
			d.ActualDeliveryDate = timePtr(actual)
			d.SignatureAt = timePtr(signedAt)
			return d, err
		},
		values: func(d *domain.DeliveryOrder) []any {
			return []any{d.Number, d.OrderID, d.CompanyID, d.StaffID, d.CurrencyID,
				d.Status, nullTime(d.DeliveryDate), nullTime(d.ActualDeliveryDate), d.DeliveryAddress,
				d.SignatureName, d.SignatureID, nullTime(d.SignatureAt),
				d.Subtotal, d.TaxPercentage, d.TaxAmount, d.Total, d.Notes, d.IsDeleted,
				d.CreatedAt, d.UpdatedAt, d.CreatedBy, d.UpdatedBy}
		},
	}
}

// DeliveryRepo serves the delivery_orders table.
type DeliveryRepo struct {
	documentRepo[*domain.DeliveryOrder]
}

// ForOrder returns the order's deliveries, newest planned date first.
func (r *DeliveryRepo) ForOrder(ctx context.Context, orderID int64) ([]*domain.DeliveryOrder, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{OrderID.EQ(orderID)},
		OrderBy:    "delivery_date",
		Descending: true,
	})
}

// Late returns undelivered deliveries whose planned date lies before
// today. Mirrors domain.DeliveryOrder.IsLate for open deliveries.
func (r *DeliveryRepo) Late(ctx context.Context, today time.Time) ([]*domain.DeliveryOrder, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			DeliveryDate.NotNull(),
			DeliveryDate.LT(domain.DateOnly(today)),
			Status.NotIn(domain.DeliveryDelivered, domain.DeliveryCancelled),
		},
		OrderBy: "delivery_date",
	})
}

func siiInvoiceMeta() meta[*domain.SIIInvoice] {
	return meta[*domain.SIIInvoice]{
		label:      "sii invoice",
		table:      TableFor("SIIInvoice"),
		softDelete: true,
		columns: []string{"invoice_number", "company_id", "staff_id", "currency_id",
			"payment_condition_id", "invoice_date", "due_date", "payment_status",
			"subtotal", "tax_percentage", "tax_amount", "total", "notes", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.SIIInvoice, error) {
			inv := new(domain.SIIInvoice)
			var payment sql.NullInt64
			var due sql.NullTime
			err := rows.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.StaffID, &inv.CurrencyID,
				&payment, &inv.InvoiceDate, &due, &inv.PaymentStatus,
				&inv.Subtotal, &inv.TaxPercentage, &inv.TaxAmount, &inv.Total, &inv.Notes, &inv.IsDeleted,
				&inv.CreatedAt, &inv.UpdatedAt, &inv.CreatedBy, &inv.UpdatedBy)
			inv.PaymentConditionID = payment.Int64
			inv.DueDate = timePtr(due)
			return inv, err
		},
		values: func(inv *domain.SIIInvoice) []any {
			return []any{inv.Number, inv.CompanyID, inv.StaffID, inv.CurrencyID,
				nullID(inv.PaymentConditionID), inv.InvoiceDate, nullTime(inv.DueDate), inv.PaymentStatus,
				inv.Subtotal, inv.TaxPercentage, inv.TaxAmount, inv.Total, inv.Notes, inv.IsDeleted,
				inv.CreatedAt, inv.UpdatedAt, inv.CreatedBy, inv.UpdatedBy}
		},
	}
}

func exportInvoiceMeta() meta[*domain.ExportInvoice] {
	return meta[*domain.ExportInvoice]{
		label:      "export invoice",
		table:      TableFor("ExportInvoice"),
		softDelete: true,
		columns: []string{"invoice_number", "company_id", "staff_id", "currency_id",
			"payment_condition_id", "destination_country_id", "incoterm_id",
			"invoice_date", "due_date", "payment_status",
			"subtotal", "tax_percentage", "tax_amount", "total", "notes", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.ExportInvoice, error) {
			inv := new(domain.ExportInvoice)
			var payment, incoterm sql.NullInt64
			var due sql.NullTime
			err := rows.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.StaffID, &inv.CurrencyID,
				&payment, &inv.DestinationCountryID, &incoterm,
				&inv.InvoiceDate, &due, &inv.PaymentStatus,
				&inv.Subtotal, &inv.TaxPercentage, &inv.TaxAmount, &inv.Total, &inv.Notes, &inv.IsDeleted,
				&inv.CreatedAt, &inv.UpdatedAt, &inv.CreatedBy, &inv.UpdatedBy)
			inv.PaymentConditionID = payment.Int64
			inv.IncotermID = incoterm.Int64
			inv.DueDate = timePtr(due)
			return inv, err
		},
		values: func(inv *domain.ExportInvoice) []any {
			return []any{inv.Number, inv.CompanyID, inv.StaffID, inv.CurrencyID,
				nullID(inv.PaymentConditionID), inv.DestinationCountryID, nullID(inv.IncotermID),
				inv.InvoiceDate, nullTime(inv.DueDate), inv.PaymentStatus,
				inv.Subtotal, inv.TaxPercentage, inv.TaxAmount, inv.Total, inv.Notes, inv.IsDeleted,
				inv.CreatedAt, inv.UpdatedAt, inv.CreatedBy, inv.UpdatedBy}
		},
	}
}

// SIIInvoiceRepo serves the sii_invoices table.
type SIIInvoiceRepo struct {
	documentRepo[*domain.SIIInvoice]
}

// PastDue returns unpaid invoices whose due date lies before today.
func (r *SIIInvoiceRepo) PastDue(ctx context.Context, today time.Time) ([]*domain.SIIInvoice, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			DueDate.NotNull(),
			DueDate.LT(domain.DateOnly(today)),
			PaymentStatus.NEQ(domain.PaymentPaid),
		},
		OrderBy: "due_date",
	})
}

// ExportInvoiceRepo serves the export_invoices table.
type ExportInvoiceRepo struct {
	documentRepo[*domain.ExportInvoice]
}

// PastDue returns unpaid invoices whose due date lies before today.
func (r *ExportInvoiceRepo) PastDue(ctx context.Context, today time.Time) ([]*domain.ExportInvoice, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			DueDate.NotNull(),
			DueDate.LT(domain.DateOnly(today)),
			PaymentStatus.NEQ(domain.PaymentPaid),
		},
		OrderBy: "due_date",
	})
}

// timePtr maps a nullable date column back to the optional field.
func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// nullTime maps optional dates to NULL.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
