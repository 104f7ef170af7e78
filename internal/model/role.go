package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // OWNER, CASHIER
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleOwner   = "OWNER"
	RoleCashier = "CASHIER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleOwner,
		Name:        "Owner",
		Description: "Full back-office access with all privileges",
	},
	{
		Code:        RoleCashier,
		Name:        "Cashier",
		Description: "Records sales and views stock",
	},
}

// CashierPrivileges are the codes granted to the cashier role on seeding.
var CashierPrivileges = []string{
	PrivProductView,
	PrivTransactionView,
	PrivTransactionCreate,
	PrivNotificationView,
}
