package bom_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/audit"
	"github.com/australsoft/folio/bom"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeSource serves a hand-built graph, mirroring the store adapter's
// contract: missing products error, edges come grouped by parent in
// component-id order.
type fakeSource struct {
	products map[int64]*domain.Product
	edges    map[int64][]*domain.ProductComponent
}

func newFake(products []*domain.Product, edges []*domain.ProductComponent) *fakeSource {
	f := &fakeSource{
		products: make(map[int64]*domain.Product),
		edges:    make(map[int64][]*domain.ProductComponent),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	for _, e := range edges {
		f.edges[e.ParentID] = append(f.edges[e.ParentID], e)
	}
	return f
}

func (f *fakeSource) Products(_ context.Context, ids []int64) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := f.products[id]
		if !ok {
			return nil, folio.NewNotFoundErrorWithID("product", id)
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeSource) ComponentsOf(_ context.Context, parentIDs []int64) (map[int64][]*domain.ProductComponent, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	out := make(map[int64][]*domain.ProductComponent, len(parentIDs))
	for _, id := range parentIDs {
		out[id] = f.edges[id]
	}
	return out, nil
}

func article(id int64, ref, cost, price, weight string) *domain.Product {
	p := &domain.Product{
		Reference: ref,
		Type:      domain.ProductArticle,
		PriceMode: domain.PriceManual,
		CostPrice: dec(cost),
		SalePrice: dec(price),
	}
	p.ID = id
	if weight != "" {
		p.NetWeight = decimal.NewNullDecimal(dec(weight))
	}
	return p
}

func service(id int64, ref, cost, price string) *domain.Product {
	p := &domain.Product{
		Reference: ref,
		Type:      domain.ProductService,
		PriceMode: domain.PriceManual,
		CostPrice: dec(cost),
		SalePrice: dec(price),
	}
	p.ID = id
	return p
}

func nomenclature(id int64, ref string, mode domain.PriceMode) *domain.Product {
	p := &domain.Product{Reference: ref, Type: domain.ProductNomenclature, PriceMode: mode}
	p.ID = id
	return p
}

func edge(parent, component int64, qty string) *domain.ProductComponent {
	return &domain.ProductComponent{ParentID: parent, ComponentID: component, Quantity: dec(qty)}
}

// coldRoom builds the reference assembly used across the tests:
//
//	CAM-20 (room)      → 1× PUERTA-F, 1× INST-SRV, 6× PANEL-100
//	PANEL-100 (panel)  → 2× ACERO-05, 4× PERNO-M8
func coldRoom() *fakeSource {
	return newFake(
		[]*domain.Product{
			article(1, "ACERO-05", "50", "80", "12.5"),
			article(2, "PERNO-M8", "1.50", "2.50", "0.02"),
			article(3, "PUERTA-F", "200", "320", "35"),
			service(4, "INST-SRV", "100", "150"),
			nomenclature(10, "PANEL-100", domain.PriceFromComponents),
			nomenclature(20, "CAM-20", domain.PriceFromComponents),
		},
		[]*domain.ProductComponent{
			edge(10, 1, "2"),
			edge(10, 2, "4"),
			edge(20, 3, "1"),
			edge(20, 4, "1"),
			edge(20, 10, "6"),
		},
	)
}

func TestRollupFromComponents(t *testing.T) {
	eng := bom.New(coldRoom())
	ctx := context.Background()

	panel, err := eng.Rollup(ctx, 10)
	require.NoError(t, err)
	assert.True(t, panel.Cost.Equal(dec("106")), "panel cost %s", panel.Cost)
	assert.True(t, panel.Price.Equal(dec("170")), "panel price %s", panel.Price)
	require.True(t, panel.Weight.Valid)
	assert.True(t, panel.Weight.Decimal.Equal(dec("25.08")), "panel weight %s", panel.Weight.Decimal)

	room, err := eng.Rollup(ctx, 20)
	require.NoError(t, err)
	assert.True(t, room.Cost.Equal(dec("936")), "room cost %s", room.Cost)
	assert.True(t, room.Price.Equal(dec("1490")), "room price %s", room.Price)
	require.True(t, room.Weight.Valid)
	// The installation service weighs nothing and contributes zero.
	assert.True(t, room.Weight.Decimal.Equal(dec("185.48")), "room weight %s", room.Weight.Decimal)
}

func TestRollupLeaves(t *testing.T) {
	margin := article(5, "VALV-12", "10", "0", "")
	margin.PriceMode = domain.PriceFromCostMargin
	margin.MarginPercentage = dec("30")
	src := newFake([]*domain.Product{
		article(1, "ACERO-05", "50", "80", "12.5"),
		service(4, "INST-SRV", "100", "150"),
		margin,
	}, nil)
	eng := bom.New(src)
	ctx := context.Background()

	sheet, err := eng.Rollup(ctx, 1)
	require.NoError(t, err)
	assert.True(t, sheet.Cost.Equal(dec("50")))
	assert.True(t, sheet.Price.Equal(dec("80")))
	require.True(t, sheet.Weight.Valid)
	assert.True(t, sheet.Weight.Decimal.Equal(dec("12.5")))

	install, err := eng.Rollup(ctx, 4)
	require.NoError(t, err)
	assert.True(t, install.Cost.Equal(dec("100")))
	assert.True(t, install.Price.Equal(dec("150")))
	assert.False(t, install.Weight.Valid, "services do not weigh")

	valve, err := eng.Rollup(ctx, 5)
	require.NoError(t, err)
	assert.True(t, valve.Cost.Equal(dec("10")))
	assert.True(t, valve.Price.Equal(dec("13")), "margin price %s", valve.Price)
	assert.False(t, valve.Weight.Valid, "unweighed article stays null")
}

func TestRollupModes(t *testing.T) {
	manual := nomenclature(30, "KIT-REP", domain.PriceManual)
	manual.CostPrice = dec("999")
	manual.SalePrice = dec("1500")
	margined := nomenclature(31, "CAM-PROMO", domain.PriceFromCostMargin)
	margined.CostPrice = dec("400")
	margined.MarginPercentage = dec("25")
	src := newFake(
		[]*domain.Product{
			article(2, "PERNO-M8", "1.50", "2.50", "0.02"),
			article(3, "PUERTA-F", "200", "320", "35"),
			manual, margined,
		},
		[]*domain.ProductComponent{
			edge(30, 2, "10"),
			edge(31, 3, "1"),
		},
	)
	eng := bom.New(src)
	ctx := context.Background()

	kit, err := eng.Rollup(ctx, 30)
	require.NoError(t, err)
	assert.True(t, kit.Cost.Equal(dec("999")), "manual mode keeps the stored cost, got %s", kit.Cost)
	assert.True(t, kit.Price.Equal(dec("1500")))
	require.True(t, kit.Weight.Valid, "weight ignores the price mode")
	assert.True(t, kit.Weight.Decimal.Equal(dec("0.2")), "kit weight %s", kit.Weight.Decimal)

	promo, err := eng.Rollup(ctx, 31)
	require.NoError(t, err)
	assert.True(t, promo.Cost.Equal(dec("400")))
	assert.True(t, promo.Price.Equal(dec("500")), "cost+margin price %s", promo.Price)
	require.True(t, promo.Weight.Valid)
	assert.True(t, promo.Weight.Decimal.Equal(dec("35")))
}

func TestRollupMissingProduct(t *testing.T) {
	eng := bom.New(coldRoom())
	_, err := eng.Rollup(context.Background(), 404)
	assert.True(t, folio.IsNotFound(err), "%v", err)
}

var decimalEq = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestTree(t *testing.T) {
	eng := bom.New(coldRoom())
	got, err := eng.Tree(context.Background(), 20)
	require.NoError(t, err)

	want := &bom.Node{
		ProductID: 20, Reference: "CAM-20", Quantity: dec("1"), Level: 0,
		Components: []*bom.Node{
			{ProductID: 3, Reference: "PUERTA-F", Quantity: dec("1"), Level: 1},
			{ProductID: 4, Reference: "INST-SRV", Quantity: dec("1"), Level: 1},
			{ProductID: 10, Reference: "PANEL-100", Quantity: dec("6"), Level: 1,
				Components: []*bom.Node{
					{ProductID: 1, Reference: "ACERO-05", Quantity: dec("2"), Level: 2},
					{ProductID: 2, Reference: "PERNO-M8", Quantity: dec("4"), Level: 2},
				}},
		},
	}
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeLeafRoot(t *testing.T) {
	eng := bom.New(coldRoom())
	got, err := eng.Tree(context.Background(), 2)
	require.NoError(t, err)
	want := &bom.Node{ProductID: 2, Reference: "PERNO-M8", Quantity: dec("1"), Level: 0}
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten(t *testing.T) {
	eng := bom.New(coldRoom())
	got, err := eng.Flatten(context.Background(), 20)
	require.NoError(t, err)

	want := []bom.Line{
		{ProductID: 1, Reference: "ACERO-05", Quantity: dec("12")},
		{ProductID: 4, Reference: "INST-SRV", Quantity: dec("1")},
		{ProductID: 2, Reference: "PERNO-M8", Quantity: dec("24")},
		{ProductID: 3, Reference: "PUERTA-F", Quantity: dec("1")},
	}
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Errorf("flat view mismatch (-want +got):\n%s", diff)
	}
}

// A leaf reached both directly and through a sub-assembly accumulates
// into one line.
func TestFlattenAccumulatesSharedLeaves(t *testing.T) {
	src := coldRoom()
	module := nomenclature(40, "MOD-X", domain.PriceFromComponents)
	src.products[40] = module
	src.edges[40] = []*domain.ProductComponent{
		edge(40, 1, "2"),
		edge(40, 10, "1"),
	}
	eng := bom.New(src)

	got, err := eng.Flatten(context.Background(), 40)
	require.NoError(t, err)
	want := []bom.Line{
		{ProductID: 1, Reference: "ACERO-05", Quantity: dec("4")},
		{ProductID: 2, Reference: "PERNO-M8", Quantity: dec("4")},
	}
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Errorf("flat view mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenDegenerateRoots(t *testing.T) {
	src := coldRoom()
	src.products[33] = nomenclature(33, "NOM-VACIA", domain.PriceFromComponents)
	eng := bom.New(src)
	ctx := context.Background()

	// A childless nomenclature is requisitioned as itself.
	got, err := eng.Flatten(ctx, 33)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NOM-VACIA", got[0].Reference)
	assert.True(t, got[0].Quantity.Equal(dec("1")))

	// So is a plain article.
	got, err = eng.Flatten(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PERNO-M8", got[0].Reference)
}

func TestCheckEdge(t *testing.T) {
	eng := bom.New(coldRoom())
	ctx := context.Background()

	t.Run("self_edge", func(t *testing.T) {
		err := eng.CheckEdge(ctx, 10, 10)
		assert.True(t, folio.IsValidationError(err), "%v", err)
	})

	t.Run("direct_cycle", func(t *testing.T) {
		// CAM-20 already uses PANEL-100.
		err := eng.CheckEdge(ctx, 10, 20)
		require.Error(t, err)
		assert.True(t, folio.IsConflict(err), "%v", err)
		assert.False(t, folio.IsRetryable(err), "a cycle never resolves by retrying")
	})

	t.Run("transitive_cycle", func(t *testing.T) {
		// CAM-20 reaches ACERO-05 through PANEL-100.
		err := eng.CheckEdge(ctx, 1, 20)
		assert.True(t, folio.IsConflict(err), "%v", err)
	})

	t.Run("diamond_is_fine", func(t *testing.T) {
		// Using the panel's sheet directly under the room shares a leaf,
		// but closes no cycle.
		assert.NoError(t, eng.CheckEdge(ctx, 20, 1))
	})
}

// A cycle written behind the engine's back (bad import, manual SQL) must
// surface as a conflict instead of hanging the traversal.
func TestCorruptCycleDetected(t *testing.T) {
	x := nomenclature(50, "NOM-A", domain.PriceFromComponents)
	y := nomenclature(51, "NOM-B", domain.PriceFromComponents)
	src := newFake(
		[]*domain.Product{x, y, article(1, "ACERO-05", "50", "80", "12.5")},
		[]*domain.ProductComponent{
			edge(50, 51, "1"),
			edge(51, 50, "1"),
		},
	)
	eng := bom.New(src)
	ctx := context.Background()

	_, err := eng.Rollup(ctx, 50)
	assert.True(t, folio.IsConflict(err), "%v", err)

	_, err = eng.Tree(ctx, 50)
	assert.True(t, folio.IsConflict(err), "%v", err)

	_, err = eng.Flatten(ctx, 50)
	assert.True(t, folio.IsConflict(err), "%v", err)

	// The guard still terminates over the corrupt region.
	assert.NoError(t, eng.CheckEdge(ctx, 1, 50))
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	s, err := store.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSessionSource(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, err := s.NewSession(ctx, audit.New(7))
	require.NoError(t, err)
	t.Cleanup(func() { sess.Rollback() })

	sheet := article(0, "ACERO-05", "50", "80", "12.5")
	bolt := article(0, "PERNO-M8", "1.50", "2.50", "0.02")
	panel := nomenclature(0, "PANEL-100", domain.PriceFromComponents)
	for _, p := range []*domain.Product{sheet, bolt, panel} {
		p.IsActive = true
		_, err := sess.Products.Create(ctx, p)
		require.NoError(t, err)
	}
	_, err = sess.Components.Create(ctx, edge(panel.ID, sheet.ID, "2"))
	require.NoError(t, err)
	_, err = sess.Components.Create(ctx, edge(panel.ID, bolt.ID, "4"))
	require.NoError(t, err)

	// The engine reads through the open session and sees the
	// uncommitted rows.
	eng := bom.New(bom.SessionSource(sess))
	got, err := eng.Rollup(ctx, panel.ID)
	require.NoError(t, err)
	assert.True(t, got.Cost.Equal(dec("106")), "cost %s", got.Cost)
	assert.True(t, got.Price.Equal(dec("170")), "price %s", got.Price)
	require.True(t, got.Weight.Valid)
	assert.True(t, got.Weight.Decimal.Equal(dec("25.08")), "weight %s", got.Weight.Decimal)

	err = eng.CheckEdge(ctx, sheet.ID, panel.ID)
	assert.True(t, folio.IsConflict(err), "%v", err)
	require.NoError(t, eng.CheckEdge(ctx, panel.ID, bolt.ID))

	flat, err := eng.Flatten(ctx, panel.ID)
	require.NoError(t, err)
	require.Len(t, flat, 2)
	assert.Equal(t, "ACERO-05", flat[0].Reference)
	assert.True(t, flat[0].Quantity.Equal(dec("2")))
	assert.Equal(t, "PERNO-M8", flat[1].Reference)
	assert.True(t, flat[1].Quantity.Equal(dec("4")))

	require.NoError(t, sess.Commit())
}
