// Package bom traverses the bill-of-materials graph: products are nodes,
// component rows are quantity-weighted edges. It rolls costs, prices and
// weights up from the leaves, renders nested and flattened views of an
// assembly, and guards edge changes against cycles.
//
// Every operation loads the reachable slice of the graph through the
// engine's Source and computes against that snapshot, so results are
// consistent with the caller's open transaction. Nothing is memoized
// across calls.
package bom

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
)

// Engine computes over the BOM graph read from src. It is stateless and
// safe for concurrent use as long as the Source is.
type Engine struct {
	src Source
}

// New returns an Engine reading the graph from src.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// Rollup is the computed valuation of one product: what one unit costs,
// what it sells for, and what it weighs. Weight is null for services and
// for articles without a recorded net weight; null child weights
// contribute 0 to their parents.
type Rollup struct {
	Cost   decimal.Decimal
	Price  decimal.Decimal
	Weight decimal.NullDecimal
}

// Rollup computes cost, price and weight of one unit of the product in a
// single traversal.
//
// Leaves (articles and services) answer with their stored values.
// Nomenclatures follow their price mode: FROM_COMPONENTS sums
// quantity × child over the outgoing edges, MANUAL answers with the
// stored prices, FROM_COST_MARGIN answers cost_price and the margin
// price. Weight ignores the mode: a nomenclature always weighs the sum
// of its parts.
func (e *Engine) Rollup(ctx context.Context, productID int64) (Rollup, error) {
	v, err := e.load(ctx, productID)
	if err != nil {
		return Rollup{}, err
	}
	return v.rollup(productID, make(map[int64]bool))
}

// Cost returns the cost roll-up of one unit of the product.
func (e *Engine) Cost(ctx context.Context, productID int64) (decimal.Decimal, error) {
	r, err := e.Rollup(ctx, productID)
	return r.Cost, err
}

// Price returns the sale price roll-up of one unit of the product.
func (e *Engine) Price(ctx context.Context, productID int64) (decimal.Decimal, error) {
	r, err := e.Rollup(ctx, productID)
	return r.Price, err
}

// Weight returns the net weight roll-up of one unit of the product, null
// when the product does not weigh (services, unweighed articles).
func (e *Engine) Weight(ctx context.Context, productID int64) (decimal.NullDecimal, error) {
	r, err := e.Rollup(ctx, productID)
	return r.Weight, err
}

// Node is one line of the nested assembly view. Quantity is the amount
// required by the immediate parent (1 for the root); Level is the depth,
// 0 at the root.
type Node struct {
	ProductID  int64
	Reference  string
	Quantity   decimal.Decimal
	Level      int
	Components []*Node
}

// Tree renders the assembly depth-first, children in component-id order.
func (e *Engine) Tree(ctx context.Context, productID int64) (*Node, error) {
	v, err := e.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	return v.tree(productID, decimal.NewFromInt(1), 0, make(map[int64]bool))
}

// Line is one accumulated requirement of the flattened assembly view.
type Line struct {
	ProductID int64
	Reference string
	Quantity  decimal.Decimal
}

// Flatten walks the assembly and accumulates the leaf requirements per
// product, multiplying quantities down the paths: the material
// requisition for one unit of the root. A leaf appearing on several
// branches comes back as a single line with the summed quantity. Lines
// are ordered by reference.
func (e *Engine) Flatten(ctx context.Context, productID int64) ([]Line, error) {
	v, err := e.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	acc := make(map[int64]*Line)
	if err := v.flatten(productID, decimal.NewFromInt(1), acc, make(map[int64]bool)); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(acc))
	for _, l := range acc {
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Reference < lines[j].Reference })
	return lines, nil
}

// CheckEdge decides whether the edge parent → component may be written:
// nil when the graph stays acyclic, a validation error for self-edges, a
// conflict when the component already depends on the parent (directly or
// through intermediates). Callers run it before creating or re-targeting
// a component row.
func (e *Engine) CheckEdge(ctx context.Context, parentID, componentID int64) error {
	if parentID == componentID {
		return folio.NewValidationError("component_id", errors.New("a product cannot be a component of itself"))
	}
	v, err := e.load(ctx, componentID)
	if err != nil {
		return err
	}
	if v.reaches(componentID, parentID) {
		return folio.NewConflictError(
			fmt.Sprintf("bom: product %d already depends on product %d, the edge would close a cycle", componentID, parentID), nil)
	}
	return nil
}

// view is the slice of the graph reachable from one root, loaded level by
// level: one product batch and one edge batch per level.
type view struct {
	products map[int64]*domain.Product
	edges    map[int64][]*domain.ProductComponent
}

func (e *Engine) load(ctx context.Context, rootID int64) (*view, error) {
	v := &view{
		products: make(map[int64]*domain.Product),
		edges:    make(map[int64][]*domain.ProductComponent),
	}
	seen := map[int64]bool{rootID: true}
	frontier := []int64{rootID}
	for len(frontier) > 0 {
		products, err := e.src.Products(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			v.products[p.ID] = p
		}
		var parents []int64
		for _, id := range frontier {
			if p := v.products[id]; p != nil && p.IsComposite() {
				parents = append(parents, id)
			}
		}
		grouped, err := e.src.ComponentsOf(ctx, parents)
		if err != nil {
			return nil, err
		}
		var next []int64
		for _, id := range parents {
			v.edges[id] = grouped[id]
			for _, c := range grouped[id] {
				if !seen[c.ComponentID] {
					seen[c.ComponentID] = true
					next = append(next, c.ComponentID)
				}
			}
		}
		frontier = next
	}
	return v, nil
}

func (v *view) product(id int64) (*domain.Product, error) {
	p := v.products[id]
	if p == nil {
		return nil, folio.NewNotFoundErrorWithID("product", id)
	}
	return p, nil
}

func (v *view) rollup(id int64, visiting map[int64]bool) (Rollup, error) {
	if visiting[id] {
		return Rollup{}, cycleError(id)
	}
	p, err := v.product(id)
	if err != nil {
		return Rollup{}, err
	}
	if !p.IsComposite() {
		r := Rollup{Cost: p.CostPrice, Price: p.SalePrice}
		if p.PriceMode == domain.PriceFromCostMargin {
			r.Price = p.MarginPrice()
		}
		if p.Type != domain.ProductService {
			r.Weight = p.NetWeight
		}
		return r, nil
	}

	visiting[id] = true
	defer delete(visiting, id)
	var cost, price, weight decimal.Decimal
	for _, edge := range v.edges[id] {
		child, err := v.rollup(edge.ComponentID, visiting)
		if err != nil {
			return Rollup{}, err
		}
		cost = cost.Add(edge.Quantity.Mul(child.Cost))
		price = price.Add(edge.Quantity.Mul(child.Price))
		if child.Weight.Valid {
			weight = weight.Add(edge.Quantity.Mul(child.Weight.Decimal))
		}
	}

	r := Rollup{Weight: decimal.NewNullDecimal(weight)}
	switch p.PriceMode {
	case domain.PriceFromComponents:
		r.Cost, r.Price = cost, price
	case domain.PriceFromCostMargin:
		r.Cost, r.Price = p.CostPrice, p.MarginPrice()
	default:
		r.Cost, r.Price = p.CostPrice, p.SalePrice
	}
	return r, nil
}

func (v *view) tree(id int64, quantity decimal.Decimal, level int, visiting map[int64]bool) (*Node, error) {
	if visiting[id] {
		return nil, cycleError(id)
	}
	p, err := v.product(id)
	if err != nil {
		return nil, err
	}
	n := &Node{ProductID: id, Reference: p.Reference, Quantity: quantity, Level: level}
	if !p.IsComposite() {
		return n, nil
	}
	visiting[id] = true
	defer delete(visiting, id)
	for _, edge := range v.edges[id] {
		child, err := v.tree(edge.ComponentID, edge.Quantity, level+1, visiting)
		if err != nil {
			return nil, err
		}
		n.Components = append(n.Components, child)
	}
	return n, nil
}

func (v *view) flatten(id int64, factor decimal.Decimal, acc map[int64]*Line, visiting map[int64]bool) error {
	p, err := v.product(id)
	if err != nil {
		return err
	}
	// A nomenclature dissolves into its parts; anything else, including a
	// nomenclature without recorded components, is requisitioned as-is.
	if edges := v.edges[id]; p.IsComposite() && len(edges) > 0 {
		if visiting[id] {
			return cycleError(id)
		}
		visiting[id] = true
		defer delete(visiting, id)
		for _, edge := range edges {
			if err := v.flatten(edge.ComponentID, factor.Mul(edge.Quantity), acc, visiting); err != nil {
				return err
			}
		}
		return nil
	}
	if line, ok := acc[id]; ok {
		line.Quantity = line.Quantity.Add(factor)
		return nil
	}
	acc[id] = &Line{ProductID: id, Reference: p.Reference, Quantity: factor}
	return nil
}

// reaches reports whether `to` is reachable from `from` over the loaded
// edges. The seen set keeps the walk finite even on a graph that already
// carries a cycle.
func (v *view) reaches(from, to int64) bool {
	seen := make(map[int64]bool)
	var dfs func(id int64) bool
	dfs = func(id int64) bool {
		if id == to {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, edge := range v.edges[id] {
			if dfs(edge.ComponentID) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

func cycleError(id int64) error {
	return folio.NewConflictError(fmt.Sprintf("bom: product %d is part of a component cycle", id), nil)
}
