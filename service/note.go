package service

import (
	"context"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// NoteService attaches free-form annotations to any record in the
// system.
type NoteService struct {
	s *Services
}

// Attach hangs a note on the target. Unknown target kinds are stored
// anyway so readers of newer schemas are not broken, but they are worth
// a warning in the log.
func (s *NoteService) Attach(ctx context.Context, sess *store.Session, target domain.NoteTarget, n *domain.Note) (*domain.Note, error) {
	if !domain.KnownNoteKind(target.Kind) {
		s.s.log.Warn("note attached to unknown kind", "kind", target.Kind, "entity_id", target.ID)
	}
	n.EntityType = target.Kind
	n.EntityID = target.ID
	if err := sess.Notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// For lists the target's notes, newest first.
func (s *NoteService) For(ctx context.Context, sess *store.Session, target domain.NoteTarget) ([]*domain.Note, error) {
	return sess.Notes.ForTarget(ctx, target)
}

// ByPriority lists the target's notes at the given priority.
func (s *NoteService) ByPriority(ctx context.Context, sess *store.Session, target domain.NoteTarget, p domain.Priority) ([]*domain.Note, error) {
	return sess.Notes.ByPriority(ctx, target, p)
}

// Update rewrites a note.
func (s *NoteService) Update(ctx context.Context, sess *store.Session, n *domain.Note) (*domain.Note, error) {
	if err := sess.Notes.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Archive hides the note from reads.
func (s *NoteService) Archive(ctx context.Context, sess *store.Session, id int64) error {
	return sess.Notes.SoftDelete(ctx, id)
}
