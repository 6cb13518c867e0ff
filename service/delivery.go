package service

import (
	"context"
	"strings"
	"time"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// DeliveryService issues delivery orders against sales orders and
// records proof of delivery.
type DeliveryService struct {
	s *Services
}

// Create persists a delivery order. An empty number is allocated from
// the sequence generator using today's year.
func (s *DeliveryService) Create(ctx context.Context, sess *store.Session, d *domain.DeliveryOrder) (*domain.DeliveryOrder, error) {
	number, err := s.s.number(ctx, sess, domain.FamilyDelivery, d.CompanyID, d.Number, sess.Audit().Today())
	if err != nil {
		return nil, err
	}
	d.Number = number
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	if err := s.s.checkStatus(ctx, sess, domain.FamilyDelivery, d.Status); err != nil {
		return nil, err
	}
	if err := sess.Deliveries.Create(ctx, d); err != nil {
		return nil, err
	}
	s.s.log.Info("delivery created", "number", d.Number, "order_id", d.OrderID)
	return d, nil
}

// CreateForOrder issues a delivery order for an existing sales order.
// Company, currency and totals come from the order, the acting principal
// becomes the responsible staff, and an empty address falls back to the
// company's default delivery address when one exists.
func (s *DeliveryService) CreateForOrder(ctx context.Context, sess *store.Session, orderID int64, plannedDate *time.Time) (*domain.DeliveryOrder, error) {
	o, err := sess.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	d := &domain.DeliveryOrder{
		OrderID:        o.ID,
		CompanyID:      o.CompanyID,
		StaffID:        sess.Audit().PrincipalID(),
		CurrencyID:     o.CurrencyID,
		DeliveryDate:   plannedDate,
		DocumentTotals: o.DocumentTotals,
	}
	if addr, err := sess.Addresses.Default(ctx, o.CompanyID); err == nil {
		d.DeliveryAddress = addr.Street
	} else if !folio.IsNotFound(err) {
		return nil, err
	}
	return s.Create(ctx, sess, d)
}

// Get returns the delivery order.
func (s *DeliveryService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.DeliveryOrder, error) {
	return sess.Deliveries.Get(ctx, id)
}

// ForOrder lists the deliveries issued against an order.
func (s *DeliveryService) ForOrder(ctx context.Context, sess *store.Session, orderID int64) ([]*domain.DeliveryOrder, error) {
	return sess.Deliveries.ForOrder(ctx, orderID)
}

// MarkDelivered records proof of delivery: receiver name and id, an
// optional note, status DELIVERED and the actual timestamp.
func (s *DeliveryService) MarkDelivered(ctx context.Context, sess *store.Session, id int64, signatureName, signatureID, notes string) (*domain.DeliveryOrder, error) {
	d, err := sess.Deliveries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.MarkDelivered(signatureName, signatureID, notes, sess.Audit().Now())
	if err := sess.Deliveries.Update(ctx, d); err != nil {
		return nil, err
	}
	s.s.log.Info("delivery marked delivered",
		"number", d.Number, "signature_name", signatureName, "signature_at", d.SignatureAt)
	return d, nil
}

// ChangeStatus moves the delivery to the given catalog status. Delivery
// confirmation should go through MarkDelivered so the signature fields
// are stamped.
func (s *DeliveryService) ChangeStatus(ctx context.Context, sess *store.Session, id int64, status string) (*domain.DeliveryOrder, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := s.s.checkStatus(ctx, sess, domain.FamilyDelivery, status); err != nil {
		return nil, err
	}
	d, err := sess.Deliveries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Status = status
	if err := sess.Deliveries.Update(ctx, d); err != nil {
		return nil, err
	}
	s.s.log.Info("delivery status changed", "number", d.Number, "status", status)
	return d, nil
}

// Late lists undelivered orders whose planned date has passed as of the
// given day.
func (s *DeliveryService) Late(ctx context.Context, sess *store.Session, today time.Time) ([]*domain.DeliveryOrder, error) {
	return sess.Deliveries.Late(ctx, today)
}

// Delete hides the delivery from reads.
func (s *DeliveryService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	return sess.Deliveries.SoftDelete(ctx, id)
}
