package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/database"
	"go-retail-backoffice/pkg/database/dbtest"
	"go-retail-backoffice/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

var tester = Actor{ID: "tester", Name: "Tester", Email: "tester@example.com"}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

// fakeSender accepts every message except those about products listed in
// failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []push.Message
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg push.Message) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, _ := msg.Data["productName"].(string); s.failFor[name] {
		return nil, &push.ProviderError{StatusCode: 400, Body: json.RawMessage(`{"errors":["rejected"]}`)}
	}
	s.sent = append(s.sent, msg)
	return json.RawMessage(`{"id":"n-1"}`), nil
}

func (s *fakeSender) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.sent {
		if m.Data["type"] == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	t             *testing.T
	db            *gorm.DB
	events        *recordingPublisher
	sender        *fakeSender
	metrics       *metrics.Metrics
	registry      *prometheus.Registry
	logs          *observer.ObservedLogs
	productRepo   repository.ProductRepository
	logRepo       repository.NotificationLogRepository
	products      ProductService
	transactions  TransactionService
	notifications NotificationService
	alerts        StockAlertService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t, model.All()...)
	require.NoError(t, repository.NewCatalogRepo(db).SeedSizes())

	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	uow := database.NewUnitOfWork(db, dbtest.TxOptions)
	events := &recordingPublisher{}
	sender := &fakeSender{failFor: map[string]bool{}}
	registry := prometheus.NewRegistry()
	m := metrics.New("test", registry)

	productRepo := repository.NewProductRepo(db)
	logRepo := repository.NewNotificationLogRepo(db)
	notifications := NewNotificationService(sender, repository.NewNotificationRepo(db), repository.NewUserRepo(db), productRepo, log)

	return &fixture{
		t:             t,
		db:            db,
		events:        events,
		sender:        sender,
		metrics:       m,
		registry:      registry,
		logs:          logs,
		productRepo:   productRepo,
		logRepo:       logRepo,
		products:      NewProductService(productRepo, uow, events, log),
		transactions:  NewTransactionService(repository.NewTransactionRepo(db), uow, events, m, log),
		notifications: notifications,
		alerts:        NewStockAlertService(logRepo, notifications, events, m, log),
	}
}

func (f *fixture) product(name string, minStock int, sizes ...model.SizeInput) *model.Product {
	f.t.Helper()
	if sizes == nil {
		sizes = []model.SizeInput{}
	}
	p, err := f.products.Create(context.Background(), ProductInput{Name: name, MinStock: minStock, Sizes: sizes}, tester)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) user(email string) *model.User {
	f.t.Helper()
	u := &model.User{Email: email, FullName: email, IsActive: true}
	require.NoError(f.t, u.SetPassword("secret123"))
	require.NoError(f.t, repository.NewUserRepo(f.db).Create(u))
	return u
}

func (f *fixture) setSizes(id uuid.UUID, sizes ...model.SizeInput) {
	f.t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(f.t, err)
	_, err = f.products.Update(context.Background(), id, ProductInput{Name: p.Name, MinStock: p.MinStock, Sizes: sizes}, tester)
	require.NoError(f.t, err)
}

func (f *fixture) quantity(productID uuid.UUID, sizeID uint) int {
	f.t.Helper()
	var ps model.ProductSize
	require.NoError(f.t, f.db.Where("product_id = ? AND size_id = ?", productID, sizeID).First(&ps).Error)
	return ps.Quantity
}

func (f *fixture) stock(productID uuid.UUID) int {
	f.t.Helper()
	var p model.Product
	require.NoError(f.t, f.db.First(&p, "id = ?", productID).Error)
	return p.Stock
}

// requireLedgerConsistent checks Product.Stock against its size rows for
// every product.
func (f *fixture) requireLedgerConsistent() {
	f.t.Helper()
	var products []model.Product
	require.NoError(f.t, f.db.Preload("Sizes").Find(&products).Error)
	for _, p := range products {
		require.Equalf(f.t, repository.TotalQuantity(p.Sizes), p.Stock, "ledger drift on %s", p.Name)
		for _, s := range p.Sizes {
			require.GreaterOrEqualf(f.t, s.Quantity, 0, "negative quantity on %s", p.Name)
		}
	}
}

func (f *fixture) statuses(productID uuid.UUID) []string {
	f.t.Helper()
	logs, err := f.logRepo.FindByProduct(context.Background(), productID)
	require.NoError(f.t, err)
	out := []string{}
	for _, l := range logs {
		out = append(out, l.Status)
	}
	return out
}

// counter sums the samples of a counter family whose labels include the
// given pairs.
func (f *fixture) counter(name string, labels ...string) float64 {
	f.t.Helper()
	families, err := f.registry.Gather()
	require.NoError(f.t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	samples:
		for _, m := range mf.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if have[labels[i]] != labels[i+1] {
					continue samples
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func sale(productID uuid.UUID, sizeID uint, qty int) TransactionInput {
	return TransactionInput{
		TotalAmount:   float64(qty) * 100,
		Profit:        float64(qty) * 40,
		PaymentMethod: "CASH",
		Items: []TransactionItemInput{
			{ProductID: productID, SizeID: sizeID, Quantity: qty, SellPrice: 100, CostPrice: 60},
		},
	}
}
