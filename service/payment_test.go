package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/service"
)

func TestPaymentConditionLifecycle(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)

	pc, err := svc.Payments.Create(ctx, sess, &domain.PaymentCondition{
		Code: " anticipo50 ", Name: "50% anticipo, saldo contra entrega",
		AdvancePercentage:    dec("50"),
		OnDeliveryPercentage: dec("50"),
		IsActive:             true,
	})
	require.NoError(t, err)
	assert.Equal(t, "ANTICIPO50", pc.Code)

	got, err := svc.Payments.ByCode(ctx, sess, "anticipo50")
	require.NoError(t, err)
	assert.Equal(t, pc.ID, got.ID)

	active, err := svc.Payments.Active(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, svc.Payments.Deactivate(ctx, sess, pc.ID))
	active, err = svc.Payments.Active(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Payments.Create(ctx, sess, &domain.PaymentCondition{
		Code: "ROTO", Name: "suma mal",
		AdvancePercentage: dec("60"),
	})
	assert.True(t, folio.IsValidationError(err), "shares must sum to 100")
}

func TestPaymentSchedule(t *testing.T) {
	s := openStore(t)
	svc := service.New()
	ctx, sess := begin(t, s, 1)

	pc, err := svc.Payments.Create(ctx, sess, &domain.PaymentCondition{
		Code: "30-70", Name: "30 al pedido, 70 a 20 días de entrega",
		AdvancePercentage:    dec("30"),
		AfterDeliveryPercent: dec("70"),
		DaysAfterDelivery:    20,
		IsActive:             true,
	})
	require.NoError(t, err)

	invoiced := sess.Audit().Today()
	delivered := invoiced.AddDate(0, 0, 10)
	parts, err := svc.Payments.Schedule(ctx, sess, pc.ID, dec("840000"), invoiced, &delivered)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.True(t, parts[0].Amount.Equal(dec("252000")), "got %s", parts[0].Amount)
	assert.Equal(t, invoiced, parts[0].DueDate)
	assert.True(t, parts[1].Amount.Equal(dec("588000")), "got %s", parts[1].Amount)
	assert.Equal(t, delivered.AddDate(0, 0, 20), parts[1].DueDate)

	_, err = svc.Payments.Schedule(ctx, sess, 404, dec("100"), invoiced, nil)
	assert.True(t, folio.IsNotFound(err))
}
