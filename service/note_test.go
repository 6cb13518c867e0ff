package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/service"
)

func TestNoteAttachAndList(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	p := product(t, ctx, sess, "MOT-220", "1000")
	target := domain.TargetProduct(p.ID)

	older, err := svc.Notes.Attach(ctx, sess, target, &domain.Note{
		Content: "Stock crítico, reponer antes de abril.", Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)
	newer, err := svc.Notes.Attach(ctx, sess, target, &domain.Note{
		Title: "Proveedor", Content: "Cambio de importador desde marzo.",
	})
	require.NoError(t, err)
	_, err = svc.Notes.Attach(ctx, sess, domain.TargetCompany(99), &domain.Note{Content: "otra ficha"})
	require.NoError(t, err)

	notes, err := svc.Notes.For(ctx, sess, target)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, newer.ID, notes[0].ID, "newest first")
	assert.Equal(t, older.ID, notes[1].ID)
	assert.Equal(t, domain.PriorityNormal, notes[0].Priority, "empty priority defaults to normal")

	high, err := svc.Notes.ByPriority(ctx, sess, target, domain.PriorityHigh)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, older.ID, high[0].ID)
}

func TestNoteUnknownKindStillStored(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	target := domain.NoteTarget{Kind: "machine", ID: 7}

	n, err := svc.Notes.Attach(ctx, sess, target, &domain.Note{Content: "Mantención cada 400 horas."})
	require.NoError(t, err)
	assert.Equal(t, "machine", n.EntityType)

	notes, err := svc.Notes.For(ctx, sess, target)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestNoteArchive(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	target := domain.TargetOrder(12)

	n, err := svc.Notes.Attach(ctx, sess, target, &domain.Note{Content: "Cliente pidió adelantar."})
	require.NoError(t, err)
	require.NoError(t, svc.Notes.Archive(ctx, sess, n.ID))

	notes, err := svc.Notes.For(ctx, sess, target)
	require.NoError(t, err)
	assert.Empty(t, notes, "archived notes drop out of the listings")
}
