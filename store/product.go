package store

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

func productMeta() meta[*domain.Product] {
	return meta[*domain.Product]{
		label:      "product",
		table:      TableFor("Product"),
		softDelete: true,
		columns: []string{"reference", "product_type",
			"designation_es", "designation_en", "designation_fr", "short_designation",
			"unit_id", "family_type_id", "matter_id", "sales_type_id", "origin_country_id",
			"purchase_price", "cost_price", "sale_price", "sale_price_eur",
			"margin_percentage", "price_calculation_mode",
			"stock_quantity", "minimum_stock", "stock_location",
			"net_weight", "gross_weight", "length_mm", "width_mm", "height_mm", "volume_m3",
			"search_text", "is_active", colIsDeleted,
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Product, error) {
			p := new(domain.Product)
			var unit, family, matter, sales, origin sql.NullInt64
			err := rows.Scan(&p.ID, &p.Reference, &p.Type,
				&p.DesignationES, &p.DesignationEN, &p.DesignationFR, &p.ShortDesignation,
				&unit, &family, &matter, &sales, &origin,
				&p.PurchasePrice, &p.CostPrice, &p.SalePrice, &p.SalePriceEUR,
				&p.MarginPercentage, &p.PriceMode,
				&p.StockQuantity, &p.MinimumStock, &p.StockLocation,
				&p.NetWeight, &p.GrossWeight, &p.LengthMM, &p.WidthMM, &p.HeightMM, &p.VolumeM3,
				&p.SearchText, &p.IsActive, &p.IsDeleted,
				&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy)
			p.UnitID = unit.Int64
			p.FamilyTypeID = family.Int64
			p.MatterID = matter.Int64
			p.SalesTypeID = sales.Int64
			p.OriginCountryID = origin.Int64
			return p, err
		},
		values: func(p *domain.Product) []any {
			return []any{p.Reference, p.Type,
				p.DesignationES, p.DesignationEN, p.DesignationFR, p.ShortDesignation,
				nullID(p.UnitID), nullID(p.FamilyTypeID), nullID(p.MatterID), nullID(p.SalesTypeID), nullID(p.OriginCountryID),
				p.PurchasePrice, p.CostPrice, p.SalePrice, p.SalePriceEUR,
				p.MarginPercentage, p.PriceMode,
				p.StockQuantity, p.MinimumStock, p.StockLocation,
				p.NetWeight, p.GrossWeight, p.LengthMM, p.WidthMM, p.HeightMM, p.VolumeM3,
				p.SearchText, p.IsActive, p.IsDeleted,
				p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy}
		},
	}
}

// ProductRepo serves the products table.
type ProductRepo struct {
	*Repository[*domain.Product]
}

// ByReference returns the product with the reference, NotFound when
// absent. References are stored uppercase.
func (r *ProductRepo) ByReference(ctx context.Context, reference string) (*domain.Product, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Reference.EQ(reference)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, reference)
	}
	return rows[0], nil
}

// Search matches q against the derived search_text column, accent- and
// case-insensitive, returning active products ordered by reference. An
// empty query matches nothing.
func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]*domain.Product, error) {
	folded := domain.FoldSearchText(q)
	if folded == "" {
		return nil, nil
	}
	return r.Find(ctx, Query{
		Predicates: []Predicate{SearchText.Contains(folded), IsActive.EQ(true)},
		OrderBy:    "reference",
		Limit:      limit,
	})
}

// Composites returns the active products that can own BOM components.
func (r *ProductRepo) Composites(ctx context.Context) ([]*domain.Product, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{ProductType.EQ(domain.ProductNomenclature), IsActive.EQ(true)},
		OrderBy:    "reference",
	})
}

// BelowMinimum returns the active articles whose stock fell under their
// minimum, ordered by reference.
func (r *ProductRepo) BelowMinimum(ctx context.Context) ([]*domain.Product, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{
			ProductType.EQ(domain.ProductArticle),
			IsActive.EQ(true),
			func(s *sql.Selector) {
				s.Where(sql.P(func(b *sql.Builder) {
					b.Ident(s.C("stock_quantity")).WriteString(" < ").Ident(s.C("minimum_stock"))
				}))
			},
		},
		OrderBy: "reference",
	})
}

func componentMeta() meta[*domain.ProductComponent] {
	return meta[*domain.ProductComponent]{
		label: "product component",
		table: TableFor("ProductComponent"),
		columns: []string{"parent_id", "component_id", "quantity", "notes",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.ProductComponent, error) {
			c := new(domain.ProductComponent)
			err := rows.Scan(&c.ID, &c.ParentID, &c.ComponentID, &c.Quantity, &c.Notes,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			return c, err
		},
		values: func(c *domain.ProductComponent) []any {
			return []any{c.ParentID, c.ComponentID, c.Quantity, c.Notes,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// ComponentRepo serves the product_components table, the edge list of the
// BOM graph.
type ComponentRepo struct {
	*Repository[*domain.ProductComponent]
}

// ForParent returns a product's direct components.
func (r *ComponentRepo) ForParent(ctx context.Context, parentID int64) ([]*domain.ProductComponent, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{ParentID.EQ(parentID)},
		OrderBy:    "component_id",
	})
}

// ForComponent returns the edges using the product as a component, the
// "where used" view.
func (r *ComponentRepo) ForComponent(ctx context.Context, componentID int64) ([]*domain.ProductComponent, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{ComponentID.EQ(componentID)},
		OrderBy:    "parent_id",
	})
}

// ForParents returns the outgoing edges of several products in one
// statement, grouped by parent id. The BOM engine loads each traversal
// level with one call instead of querying per node.
func (r *ComponentRepo) ForParents(ctx context.Context, parentIDs []int64) (map[int64][]*domain.ProductComponent, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.Find(ctx, Query{
		Predicates: []Predicate{func(s *sql.Selector) {
			ids := make([]any, len(parentIDs))
			for i, id := range parentIDs {
				ids[i] = id
			}
			s.Where(sql.In(s.C("parent_id"), ids...))
		}},
		OrderBy: "component_id",
	})
	if err != nil {
		return nil, err
	}
	return GroupByKey(rows, func(c *domain.ProductComponent) int64 { return c.ParentID }), nil
}

// Edges returns the whole edge list.
func (r *ComponentRepo) Edges(ctx context.Context) ([]*domain.ProductComponent, error) {
	return r.Find(ctx, Query{})
}

// DeleteForParent removes all of a product's component edges.
func (r *ComponentRepo) DeleteForParent(ctx context.Context, parentID int64) (int, error) {
	return r.DeleteMany(ctx, Query{Predicates: []Predicate{ParentID.EQ(parentID)}})
}
