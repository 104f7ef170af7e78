package service

import (
	"context"
	"errors"
	"testing"

	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepSendsOnlyOutOfStockForEmptyProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product("Empty", 10)

	result, err := f.alerts.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.NotificationsSentCount)
	assert.Zero(t, result.FailedCount)
	assert.Equal(t, 0, f.sender.count(model.StatusLowStock))
	assert.Equal(t, 1, f.sender.count(model.StatusOutOfStock))
	assert.Equal(t, []string{model.StatusOutOfStock}, f.statuses(p.ID))
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.product("Low", 5, model.SizeInput{SizeID: 1, Quantity: 2})
	f.product("Healthy", 1, model.SizeInput{SizeID: 1, Quantity: 9})

	first, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NotificationsSentCount)
	require.Len(t, first.Details, 1)
	assert.Equal(t, low.ID, first.Details[0].ProductID)
	assert.Equal(t, model.StatusLowStock, first.Details[0].Type)

	second, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.NotificationsSentCount)
	assert.Empty(t, second.Details)
	assert.Equal(t, 1, f.sender.count(model.StatusLowStock))
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(low.ID))
}

func TestLowStockAlertNamesSizes(t *testing.T) {
	f := newFixture(t)
	f.product("Runner", 5, model.SizeInput{SizeID: 1, Quantity: 1}, model.SizeInput{SizeID: 3, Quantity: 1})

	_, err := f.alerts.Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Contains(t, msg.Content, "36, 38")
	assert.Equal(t, 2, msg.Data["currentStock"])
	assert.Equal(t, 5, msg.Data["minStock"])
}

func TestSweepEscalatesLowToOutOfStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("Boot", 5, model.SizeInput{SizeID: 1, Quantity: 2})

	_, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{model.StatusLowStock}, f.statuses(p.ID))

	_, err = f.transactions.Create(ctx, sale(p.ID, 1, 2), tester)
	require.NoError(t, err)

	result, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsSentCount)
	assert.Equal(t, 1, f.sender.count(model.StatusOutOfStock))
	assert.Equal(t, []string{model.StatusOutOfStock}, f.statuses(p.ID))

	_, err = f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sender.count(model.StatusOutOfStock), "out of stock is announced once")
}

func TestRestockClearsMarkersAndAllowsNewAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("Sandal", 5, model.SizeInput{SizeID: 1, Quantity: 2})

	_, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)

	f.setSizes(p.ID, model.SizeInput{SizeID: 1, Quantity: 20})
	result, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ClearedProductsCount)
	assert.Empty(t, f.statuses(p.ID))
	assert.Equal(t, 1.0, f.counter("test_stock_alert_logs_cleared_total"))

	f.setSizes(p.ID, model.SizeInput{SizeID: 1, Quantity: 3})
	_, err = f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.sender.count(model.StatusLowStock))
}

func TestStockAtThresholdStillCountsAsLow(t *testing.T) {
	f := newFixture(t)
	p := f.product("Edge", 4, model.SizeInput{SizeID: 1, Quantity: 4})

	_, err := f.alerts.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(p.ID))
}

func TestFailedPushIsRetriedOnNextSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := f.product("Broken", 5, model.SizeInput{SizeID: 1, Quantity: 1})
	good := f.product("Fine", 5, model.SizeInput{SizeID: 1, Quantity: 1})
	f.sender.failFor["Broken"] = true

	result, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsSentCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Empty(t, f.statuses(bad.ID))
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(good.ID))
	assert.Equal(t, 1.0, f.counter("test_stock_alerts_failed_total", "status", model.StatusLowStock))

	var failed SweepDetail
	for _, d := range result.Details {
		if !d.Success {
			failed = d
		}
	}
	assert.Equal(t, bad.ID, failed.ProductID)
	assert.NotEmpty(t, failed.Error)

	delete(f.sender.failFor, "Broken")
	result, err = f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotificationsSentCount)
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(bad.ID))
}

func TestDeliveredAlertIsStoredForActiveUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user("owner@example.com")
	cashier := f.user("cashier@example.com")
	gone := f.user("gone@example.com")
	require.NoError(t, f.db.Model(gone).Update("is_active", false).Error)

	p := f.product("Empty", 3)
	_, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)

	for _, u := range []*model.User{owner, cashier} {
		inbox, err := f.notifications.ListForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, inbox.Notifications, 1)
		n := inbox.Notifications[0]
		assert.Equal(t, model.StatusOutOfStock, n.Type)
		require.NotNil(t, n.ProductID)
		assert.Equal(t, p.ID, *n.ProductID)
		assert.EqualValues(t, 1, inbox.UnreadCount)
	}

	inbox, err := f.notifications.ListForUser(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, inbox.Notifications)
}

func TestSweepAnnouncesCompletion(t *testing.T) {
	f := newFixture(t)
	_, err := f.alerts.Sweep(context.Background())
	require.NoError(t, err)
	assert.Contains(t, f.events.actions(), "sweep_finished")
}

// brokenMarkerRepo fails to record markers for one product.
type brokenMarkerRepo struct {
	repository.NotificationLogRepository
	productID uuid.UUID
}

func (r brokenMarkerRepo) Record(ctx context.Context, productID uuid.UUID, status string) error {
	if productID == r.productID {
		return errors.New("database is locked")
	}
	return r.NotificationLogRepository.Record(ctx, productID, status)
}

func TestUnrecordedMarkerDoesNotStopSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("A", 5, model.SizeInput{SizeID: 1, Quantity: 2})
	b := f.product("B", 5, model.SizeInput{SizeID: 1, Quantity: 3})
	restocked := f.product("Restocked", 1, model.SizeInput{SizeID: 1, Quantity: 9})
	require.NoError(t, f.logRepo.Record(ctx, restocked.ID, model.StatusLowStock))

	alerts := NewStockAlertService(brokenMarkerRepo{f.logRepo, a.ID}, f.notifications, f.events, f.metrics, zap.NewNop())
	result, err := alerts.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NotificationsSentCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 1, result.ClearedProductsCount, "restock pass still runs")
	assert.Equal(t, 2, f.sender.count(model.StatusLowStock))
	for _, d := range result.Details {
		if d.ProductID == a.ID {
			assert.False(t, d.Success)
			assert.Contains(t, d.Error, "marker not recorded")
		}
	}
	assert.Empty(t, f.statuses(a.ID))
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(b.ID))
	assert.Empty(t, f.statuses(restocked.ID))
	assert.Equal(t, 1.0, f.counter("test_stock_alerts_failed_total", "status", model.StatusLowStock))

	// without a marker the product is alerted again
	again, err := f.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.NotificationsSentCount)
	assert.Equal(t, []string{model.StatusLowStock}, f.statuses(a.ID))
}
