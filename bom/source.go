package bom

import (
	"context"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// Source feeds the engine the graph: product rows by id and the outgoing
// component edges of a set of parents, grouped by parent id. Both are
// batch calls so a traversal costs two statements per level, not two per
// node. Tests substitute in-memory fakes.
type Source interface {
	Products(ctx context.Context, ids []int64) ([]*domain.Product, error)
	ComponentsOf(ctx context.Context, parentIDs []int64) (map[int64][]*domain.ProductComponent, error)
}

// SessionSource reads the graph through the session's repositories, so
// traversals see the caller's uncommitted writes and hold its snapshot.
func SessionSource(sess *store.Session) Source {
	return sessionSource{sess}
}

type sessionSource struct {
	sess *store.Session
}

func (s sessionSource) Products(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	return s.sess.Products.GetMany(ctx, ids)
}

func (s sessionSource) ComponentsOf(ctx context.Context, parentIDs []int64) (map[int64][]*domain.ProductComponent, error) {
	return s.sess.Components.ForParents(ctx, parentIDs)
}
