package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

const (
	PrivProductView       = "product:view"
	PrivProductCreate     = "product:create"
	PrivProductUpdate     = "product:update"
	PrivProductDelete     = "product:delete"
	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionUpdate = "transaction:update"
	PrivTransactionDelete = "transaction:delete"
	PrivReportView        = "report:view"
	PrivNotificationView  = "notification:view"
	PrivNotificationSend  = "notification:send"
	PrivRoleView          = "role:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Product management
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Sales
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	{Code: PrivTransactionUpdate, Name: "Update Transaction"},
	{Code: PrivTransactionDelete, Name: "Delete Transaction"},
	// Reports
	{Code: PrivReportView, Name: "View Profit Report"},
	// Notifications
	{Code: PrivNotificationView, Name: "View Stock Statistics"},
	{Code: PrivNotificationSend, Name: "Send Push Notification"},
	// Roles
	{Code: PrivRoleView, Name: "View Roles"},
}
