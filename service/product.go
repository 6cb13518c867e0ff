package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/bom"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// ProductService manages the catalog of articles, services and
// nomenclatures, and keeps derived prices in line with their source.
type ProductService struct {
	s *Services
}

// Create persists a product. A cost+margin priced product gets its sale
// price computed on the way in.
func (s *ProductService) Create(ctx context.Context, sess *store.Session, p *domain.Product) (*domain.Product, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	if p.PriceMode == domain.PriceFromCostMargin {
		p.SalePrice = p.MarginPrice()
	}
	if err := sess.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.s.log.Info("product created", "reference", p.Reference, "type", p.Type, "price_mode", p.PriceMode)
	return p, nil
}

// Get returns the product.
func (s *ProductService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.Product, error) {
	return sess.Products.Get(ctx, id)
}

// ByReference returns the product with the reference.
func (s *ProductService) ByReference(ctx context.Context, sess *store.Session, reference string) (*domain.Product, error) {
	return sess.Products.ByReference(ctx, reference)
}

// Search returns up to limit active products matching q against the
// folded search text.
func (s *ProductService) Search(ctx context.Context, sess *store.Session, q string, limit int) ([]*domain.Product, error) {
	return sess.Products.Search(ctx, q, limit)
}

// AddComponent hangs a component under a nomenclature. Only composite
// products may carry components, self-references are rejected, and an
// edge that would close a cycle is refused with a conflict. The parent's
// derived prices are rebuilt afterwards.
func (s *ProductService) AddComponent(ctx context.Context, sess *store.Session, parentID, componentID int64, quantity decimal.Decimal, notes string) (*domain.ProductComponent, error) {
	parent, err := sess.Products.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsComposite() {
		return nil, folio.NewValidationError("parent_id",
			fmt.Errorf("product %s is not a nomenclature", parent.Reference))
	}
	engine := bom.New(bom.SessionSource(sess))
	if err := engine.CheckEdge(ctx, parentID, componentID); err != nil {
		return nil, err
	}
	pc := &domain.ProductComponent{
		ParentID:    parentID,
		ComponentID: componentID,
		Quantity:    quantity,
		Notes:       notes,
	}
	if err := sess.Components.Create(ctx, pc); err != nil {
		return nil, err
	}
	if _, err := s.RecalculatePrices(ctx, sess, parentID); err != nil {
		return nil, err
	}
	s.s.log.Info("component added", "parent_id", parentID, "component_id", componentID, "quantity", quantity)
	return pc, nil
}

// UpdateComponent rewrites a component edge and rebuilds the parent's
// derived prices.
func (s *ProductService) UpdateComponent(ctx context.Context, sess *store.Session, pc *domain.ProductComponent) (*domain.ProductComponent, error) {
	if err := sess.Components.Update(ctx, pc); err != nil {
		return nil, err
	}
	if _, err := s.RecalculatePrices(ctx, sess, pc.ParentID); err != nil {
		return nil, err
	}
	return pc, nil
}

// RemoveComponent detaches a component from a nomenclature and rebuilds
// the parent's derived prices.
func (s *ProductService) RemoveComponent(ctx context.Context, sess *store.Session, parentID, componentID int64) error {
	edges, err := sess.Components.Find(ctx, store.Query{Predicates: []store.Predicate{
		store.ParentID.EQ(parentID),
		store.ComponentID.EQ(componentID),
	}})
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return folio.NewNotFoundError("product component")
	}
	for _, e := range edges {
		if err := sess.Components.Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	_, err = s.RecalculatePrices(ctx, sess, parentID)
	return err
}

// RecalculatePrices rebuilds the product's derived prices from its
// pricing mode: manual products are left alone, cost+margin products get
// the margin formula, and component-priced nomenclatures get the rolled
// up cost and price of their graph. The rolled weight is reporting-only
// and is not written back.
func (s *ProductService) RecalculatePrices(ctx context.Context, sess *store.Session, id int64) (*domain.Product, error) {
	p, err := sess.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch p.PriceMode {
	case domain.PriceManual:
		return p, nil
	case domain.PriceFromCostMargin:
		p.SalePrice = p.MarginPrice()
	case domain.PriceFromComponents:
		r, err := bom.New(bom.SessionSource(sess)).Rollup(ctx, id)
		if err != nil {
			return nil, err
		}
		p.CostPrice = r.Cost.Round(2)
		p.SalePrice = r.Price.Round(2)
	}
	if err := sess.Products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Tree returns the product's component tree with per-level quantities.
func (s *ProductService) Tree(ctx context.Context, sess *store.Session, id int64) (*bom.Node, error) {
	return bom.New(bom.SessionSource(sess)).Tree(ctx, id)
}

// Requisition flattens the product's graph into aggregate leaf
// quantities, the shape a purchasing request wants.
func (s *ProductService) Requisition(ctx context.Context, sess *store.Session, id int64) ([]bom.Line, error) {
	return bom.New(bom.SessionSource(sess)).Flatten(ctx, id)
}

// Deactivate takes the product out of circulation without touching
// documents that reference it.
func (s *ProductService) Deactivate(ctx context.Context, sess *store.Session, id int64) error {
	p, err := sess.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	return sess.Products.Update(ctx, p)
}
