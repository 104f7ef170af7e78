package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-retail-backoffice/internal/middleware"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/database"
	"go-retail-backoffice/pkg/database/dbtest"
	"go-retail-backoffice/pkg/jwt"
	"go-retail-backoffice/pkg/metrics"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cronSecret = "cron-test-secret"

type acceptAll struct{}

func (acceptAll) Send(context.Context, push.Message) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"n-1","recipients":1}`), nil
}

type apiEnv struct {
	t   *testing.T
	db  *gorm.DB
	app *fiber.App
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	log := zap.NewNop()
	db := dbtest.New(t, model.All()...)
	require.NoError(t, repository.SeedDefaults(db, repository.AdminAccount{
		Email: "owner@example.com", Password: "owner123", FullName: "Owner",
	}, log))

	roleRepo := repository.NewRoleRepo(db)
	cashierRole, err := roleRepo.FindByCode(model.RoleCashier)
	require.NoError(t, err)
	cashier := &model.User{Email: "cashier@example.com", FullName: "Cashier", RoleID: &cashierRole.ID, IsActive: true}
	require.NoError(t, cashier.SetPassword("cashier123"))
	require.NoError(t, repository.NewUserRepo(db).Create(cashier))

	uow := database.NewUnitOfWork(db, dbtest.TxOptions)
	hub := ws.NewHub(log)
	m := metrics.New("api_test", prometheus.NewRegistry())

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	notifications := service.NewNotificationService(acceptAll{}, repository.NewNotificationRepo(db), userRepo, productRepo, log)
	auth := service.NewAuthService(userRepo, jwt.NewManager("handler-test", time.Hour, "test"), log)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	Register(app.Group("/api/v1"), Handlers{
		Auth:          NewAuthHandler(auth),
		Products:      NewProductHandler(service.NewProductService(productRepo, uow, hub, log)),
		Transactions:  NewTransactionHandler(service.NewTransactionService(txRepo, uow, hub, m, log)),
		Reports:       NewReportHandler(service.NewReportService(txRepo)),
		Notifications: NewNotificationHandler(notifications, service.NewStockAlertService(repository.NewNotificationLogRepo(db), notifications, hub, m, log), log),
		Roles:         NewRoleHandler(roleRepo, repository.NewPrivilegeRepo(db)),
		Catalog:       NewCatalogHandler(repository.NewCatalogRepo(db)),
	}, auth, cronSecret)

	return &apiEnv{t: t, db: db, app: app}
}

// call sends a request and decodes the envelope; data is decoded into out
// when out is not nil.
func (e *apiEnv) call(method, path, token string, body interface{}, out interface{}) (int, response.Body) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	var envelope struct {
		response.Body
		Data json.RawMessage `json:"data"`
	}
	require.NoError(e.t, json.Unmarshal(raw, &envelope), string(raw))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(e.t, json.Unmarshal(envelope.Data, out))
	}
	return resp.StatusCode, envelope.Body
}

func (e *apiEnv) login(email, password string) string {
	e.t.Helper()
	var login service.LoginResponse
	status, body := e.call(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: password}, &login)
	require.Equal(e.t, http.StatusOK, status, body.Message)
	return login.Token
}

func TestLogin(t *testing.T) {
	api := newAPI(t)

	status, body := api.call(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "owner@example.com", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.StatusError, body.Status)

	status, _ = api.call(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "owner@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	token := api.login("owner@example.com", "owner123")
	var validated service.TokenValidationResponse
	status, _ = api.call(http.MethodPost, "/api/v1/auth/validate-token", "", ValidateTokenRequest{Token: token}, &validated)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "owner@example.com", validated.User.Email)
	assert.Contains(t, validated.Privileges, model.PrivProductDelete)
}

func TestProductAndSaleFlow(t *testing.T) {
	api := newAPI(t)
	owner := api.login("owner@example.com", "owner123")
	cashier := api.login("cashier@example.com", "cashier123")

	newProduct := map[string]interface{}{
		"name":      "Court Classic",
		"min_stock": 2,
		"sizes":     []map[string]interface{}{{"size_id": 1, "quantity": "5"}, {"size_id": 2, "quantity": 3}},
	}

	status, _ := api.call(http.MethodPost, "/api/v1/products", cashier, newProduct, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var product model.Product
	status, body := api.call(http.MethodPost, "/api/v1/products", owner, newProduct, &product)
	require.Equal(t, http.StatusCreated, status, body.Message)
	assert.Equal(t, 8, product.Stock)

	status, _ = api.call(http.MethodPost, "/api/v1/products", owner, newProduct, nil)
	assert.Equal(t, http.StatusConflict, status)

	sale := map[string]interface{}{
		"total_amount":   200,
		"profit":         80,
		"payment_method": "CASH",
		"items": []map[string]interface{}{
			{"product_id": product.ID, "size_id": 1, "quantity": 2, "sell_price": 100, "cost_price": 60},
		},
	}
	var tx model.Transaction
	status, body = api.call(http.MethodPost, "/api/v1/transactions", cashier, sale, &tx)
	require.Equal(t, http.StatusCreated, status, body.Message)
	require.Len(t, tx.Items, 1)

	var after model.Product
	status, _ = api.call(http.MethodGet, "/api/v1/products/"+product.ID.String(), cashier, nil, &after)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6, after.Stock)

	sale["items"] = []map[string]interface{}{
		{"product_id": product.ID, "size_id": 2, "quantity": 4, "sell_price": 100, "cost_price": 60},
	}
	status, body = api.call(http.MethodPost, "/api/v1/transactions", cashier, sale, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "insufficient_stock", body.Error)

	status, _ = api.call(http.MethodDelete, "/api/v1/transactions/"+tx.ID.String(), cashier, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.call(http.MethodDelete, "/api/v1/transactions/"+tx.ID.String(), owner, nil, nil)
	assert.Equal(t, http.StatusOK, status)

	api.call(http.MethodGet, "/api/v1/products/"+product.ID.String(), owner, nil, &after)
	assert.Equal(t, 8, after.Stock)
}

func TestBadIdentifiersAndDates(t *testing.T) {
	api := newAPI(t)
	owner := api.login("owner@example.com", "owner123")

	status, body := api.call(http.MethodGet, "/api/v1/products/not-a-uuid", owner, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid product ID", body.Message)

	status, _ = api.call(http.MethodGet, "/api/v1/reports/profit?start_date=yesterday", owner, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.call(http.MethodGet, "/api/v1/reports/profit?start_date=2026-05-02&end_date=2026-05-01", owner, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var report service.ProfitReport
	status, _ = api.call(http.MethodGet, "/api/v1/reports/profit?start_date=2026-05-01&end_date=2026-05-31", owner, nil, &report)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, report.Summary.TotalTransactions)
}

func TestCronSweepAndInbox(t *testing.T) {
	api := newAPI(t)
	owner := api.login("owner@example.com", "owner123")

	var product model.Product
	status, _ := api.call(http.MethodPost, "/api/v1/products", owner, map[string]interface{}{"name": "Sold Out", "min_stock": 3}, &product)
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.call(http.MethodGet, "/api/v1/notifications/check-low-stock", owner, nil, nil)
	assert.Equal(t, http.StatusForbidden, status, "a user token is not the cron secret")

	var result service.SweepResult
	status, _ = api.call(http.MethodGet, "/api/v1/notifications/check-low-stock", cronSecret, nil, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, result.NotificationsSentCount)

	var inbox service.UserNotifications
	status, _ = api.call(http.MethodGet, "/api/v1/notifications", owner, nil, &inbox)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, model.StatusOutOfStock, inbox.Notifications[0].Type)

	id := inbox.Notifications[0].ID.String()
	status, _ = api.call(http.MethodPatch, "/api/v1/notifications/"+id+"/read", owner, nil, nil)
	assert.Equal(t, http.StatusOK, status)

	var stats service.StockStats
	status, _ = api.call(http.MethodGet, "/api/v1/notifications/stats", owner, nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, stats.OutOfStockCount)
}

func TestCatalogAndRoles(t *testing.T) {
	api := newAPI(t)
	owner := api.login("owner@example.com", "owner123")
	cashier := api.login("cashier@example.com", "cashier123")

	var sizes []model.Size
	status, _ := api.call(http.MethodGet, "/api/v1/sizes", cashier, nil, &sizes)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, sizes, len(model.DefaultSizes))

	status, _ = api.call(http.MethodGet, "/api/v1/roles", cashier, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var roles []model.Role
	status, _ = api.call(http.MethodGet, "/api/v1/roles", owner, nil, &roles)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, roles, len(model.DefaultRoles))

	status, _ = api.call(http.MethodGet, "/api/v1/products", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDateRangeReadsUTCDays(t *testing.T) {
	app := fiber.New()
	var got repository.DateRange
	app.Get("/", func(c *fiber.Ctx) error {
		period, err := dateRange(c)
		if err != nil {
			return err
		}
		got = period
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?start_date=2026-05-01&end_date=2026-05-03", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	assert.Equal(t, time.UTC, got.Start.Location())
	assert.True(t, got.Start.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.End.Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)))
}
