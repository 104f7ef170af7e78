package handler

import (
	"go-retail-backoffice/internal/middleware"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups the API handlers mounted by Register.
type Handlers struct {
	Auth          *AuthHandler
	Products      *ProductHandler
	Transactions  *TransactionHandler
	Reports       *ReportHandler
	Notifications *NotificationHandler
	Roles         *RoleHandler
	Catalog       *CatalogHandler
}

// Register mounts the API routes on api (normally /api/v1).
func Register(api fiber.Router, h Handlers, auth service.AuthService, cronSecret string) {
	// ============ PUBLIC ROUTES ============
	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/validate-token", h.Auth.ValidateToken)

	// Scheduler only, guarded by the cron secret instead of a user token
	api.Get("/notifications/check-low-stock", middleware.RequireCronSecret(cronSecret), h.Notifications.CheckLowStock)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(auth))

	// Catalogue lookups (any authenticated user)
	protected.Get("/sizes", h.Catalog.GetSizes)
	protected.Get("/brands", h.Catalog.GetBrands)
	protected.Get("/categories", h.Catalog.GetCategories)
	protected.Get("/product-types", h.Catalog.GetProductTypes)

	// Product Routes
	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), h.Products.GetProducts)
	protected.Get("/products/low-stock", middleware.RequirePrivilege(model.PrivProductView), h.Products.GetLowStockProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), h.Products.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), h.Products.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), h.Products.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), h.Products.DeleteProduct)

	// Transaction Routes
	protected.Get("/transactions", middleware.RequirePrivilege(model.PrivTransactionView), h.Transactions.GetTransactions)
	protected.Get("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionView), h.Transactions.GetTransaction)
	protected.Post("/transactions", middleware.RequirePrivilege(model.PrivTransactionCreate), h.Transactions.CreateTransaction)
	protected.Put("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionUpdate), h.Transactions.UpdateTransaction)
	protected.Delete("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionDelete), h.Transactions.DeleteTransaction)

	// Reports
	protected.Get("/reports/profit", middleware.RequirePrivilege(model.PrivReportView), h.Reports.GetProfitReport)

	// Notifications: the inbox belongs to the caller, sending needs a privilege
	protected.Get("/notifications", h.Notifications.GetNotifications)
	protected.Post("/notifications/read-all", h.Notifications.MarkAllAsRead)
	protected.Patch("/notifications/:id/read", h.Notifications.MarkAsRead)
	protected.Get("/notifications/stats", middleware.RequireAnyPrivilege(model.PrivNotificationView, model.PrivReportView), h.Notifications.GetStats)
	protected.Post("/notifications/send-custom", middleware.RequirePrivilege(model.PrivNotificationSend), h.Notifications.SendCustom)
	protected.Post("/notifications/test", middleware.RequirePrivilege(model.PrivNotificationSend), h.Notifications.SendTest)

	// Roles and privileges
	protected.Get("/roles", middleware.RequirePrivilege(model.PrivRoleView), h.Roles.GetRoles)
	protected.Get("/privileges", middleware.RequirePrivilege(model.PrivRoleView), h.Roles.GetPrivileges)
}
