package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/service"
)

func TestQuoteCreatePersistsLinesAndTotals(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)
	motor := product(t, ctx, sess, "MOT-220", "1000")
	panel := product(t, ctx, sess, "PAN-040", "500")

	q, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix, motor, panel))
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteDraft, q.Status, "empty status defaults to draft")
	assert.Equal(t, sess.Audit().Today(), q.QuoteDate, "empty date defaults to today")
	assert.True(t, q.Subtotal.Equal(dec("3000")), "subtotal %s", q.Subtotal)
	assert.True(t, q.TaxAmount.Equal(dec("570")), "tax %s", q.TaxAmount)
	assert.True(t, q.Total.Equal(dec("3570")), "total %s", q.Total)

	got, err := svc.Quotes.Get(ctx, sess, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 1, got.Lines[0].Sequence)
	assert.Equal(t, 2, got.Lines[1].Sequence)
	assert.Equal(t, q.ID, got.Lines[0].QuoteID)

	byNum, err := svc.Quotes.ByNumber(ctx, sess, q.Number)
	require.NoError(t, err)
	assert.Equal(t, got.ID, byNum.ID)
	assert.Len(t, byNum.Lines, 2)
}

func TestQuoteLineEditingKeepsTotals(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)
	motor := product(t, ctx, sess, "MOT-220", "1000")
	seal := product(t, ctx, sess, "SEL-007", "25.50")

	q, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix, motor))
	require.NoError(t, err)
	require.True(t, q.Total.Equal(dec("2380")), "2000 + 19%%, got %s", q.Total)

	q, err = svc.Quotes.AddLine(ctx, sess, q.ID, &domain.QuoteLine{
		ProductID: seal.ID,
		Quantity:  dec("4"),
		UnitPrice: seal.SalePrice,
	})
	require.NoError(t, err)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, 2, q.Lines[1].Sequence, "appended line continues the sequence")
	assert.True(t, q.Subtotal.Equal(dec("2102")), "subtotal %s", q.Subtotal)

	line := q.Lines[1]
	line.Quantity = dec("10")
	q, err = svc.Quotes.UpdateLine(ctx, sess, line)
	require.NoError(t, err)
	assert.True(t, q.Subtotal.Equal(dec("2255")), "subtotal %s", q.Subtotal)

	q, err = svc.Quotes.RemoveLine(ctx, sess, q.ID, line.ID)
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.True(t, q.Subtotal.Equal(dec("2000")), "subtotal %s", q.Subtotal)
}

func TestQuoteRemoveLineChecksOwnership(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)
	motor := product(t, ctx, sess, "MOT-220", "1000")

	first, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix, motor))
	require.NoError(t, err)
	second, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix, motor))
	require.NoError(t, err)

	a, err := svc.Quotes.Get(ctx, sess, first.ID)
	require.NoError(t, err)
	_, err = svc.Quotes.RemoveLine(ctx, sess, second.ID, a.Lines[0].ID)
	assert.True(t, folio.IsNotFound(err), "a line hanging off another quote reads as not found")
}

func TestQuoteChangeStatus(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)

	q, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix))
	require.NoError(t, err)

	q, err = svc.Quotes.ChangeStatus(ctx, sess, q.ID, " sent ")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteSent, q.Status)

	_, err = svc.Quotes.ChangeStatus(ctx, sess, q.ID, "SHIPPED")
	assert.True(t, folio.IsValidationError(err), "quote family has no SHIPPED status")
}

func TestQuoteExpireStale(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)
	today := sess.Audit().Today()
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	stale := quoteFixture(fix)
	stale.Status = domain.QuoteSent
	stale.QuoteDate = yesterday.AddDate(0, 0, -30)
	stale.ValidUntil = &yesterday
	stale, err := svc.Quotes.Create(ctx, sess, stale)
	require.NoError(t, err)

	closing := quoteFixture(fix)
	closing.Status = domain.QuoteSent
	closing.ValidUntil = &today
	closing, err = svc.Quotes.Create(ctx, sess, closing)
	require.NoError(t, err)

	draft := quoteFixture(fix)
	draft.QuoteDate = yesterday.AddDate(0, 0, -30)
	draft.ValidUntil = &yesterday
	draft, err = svc.Quotes.Create(ctx, sess, draft)
	require.NoError(t, err)

	open := quoteFixture(fix)
	open.Status = domain.QuoteSent
	open.ValidUntil = &tomorrow
	open, err = svc.Quotes.Create(ctx, sess, open)
	require.NoError(t, err)

	n, err := svc.Quotes.ExpireStale(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the sent quote past its window expires")

	for id, want := range map[int64]string{
		stale.ID:   domain.QuoteExpired,
		closing.ID: domain.QuoteSent,
		draft.ID:   domain.QuoteDraft,
		open.ID:    domain.QuoteSent,
	} {
		got, err := sess.Quotes.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "quote %d", id)
	}
}

func TestQuoteDeleteHidesButKeepsNumber(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)
	fix := seedFixtures(t, ctx, sess)

	q, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix))
	require.NoError(t, err)
	require.Equal(t, "C-FRI-2025-0001", q.Number)
	require.NoError(t, svc.Quotes.Delete(ctx, sess, q.ID))

	_, err = svc.Quotes.Get(ctx, sess, q.ID)
	assert.True(t, folio.IsNotFound(err))

	// The counter does not rewind: the next quote takes the next number.
	next, err := svc.Quotes.Create(ctx, sess, quoteFixture(fix))
	require.NoError(t, err)
	assert.Equal(t, "C-FRI-2025-0002", next.Number)
}
