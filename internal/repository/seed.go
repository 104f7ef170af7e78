package repository

import (
	"errors"
	"fmt"

	"go-retail-backoffice/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminAccount is the owner user created when none exists yet.
type AdminAccount struct {
	Email    string
	Password string
	FullName string
}

// SeedDefaults creates the default privileges, roles, sizes and owner
// account. It is safe to run on every start.
func SeedDefaults(db *gorm.DB, admin AdminAccount, log *zap.Logger) error {
	privilegeRepo := NewPrivilegeRepo(db)
	roleRepo := NewRoleRepo(db)
	userRepo := NewUserRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}
	if granted, err := roleRepo.GrantIfEmpty(model.RoleOwner, allPrivileges); err != nil {
		return err
	} else if granted {
		log.Info("owner role assigned all privileges", zap.Int("privileges", len(allPrivileges)))
	}

	cashierPrivileges, err := privilegeRepo.FindByCodes(model.CashierPrivileges)
	if err != nil {
		return err
	}
	if granted, err := roleRepo.GrantIfEmpty(model.RoleCashier, cashierPrivileges); err != nil {
		return err
	} else if granted {
		log.Info("cashier role assigned sales privileges", zap.Int("privileges", len(cashierPrivileges)))
	}

	// 4. Sizes referenced by product size rows
	if err := NewCatalogRepo(db).SeedSizes(); err != nil {
		return fmt.Errorf("seed sizes: %w", err)
	}

	// 5. Create the owner account
	if admin.Email == "" {
		return nil
	}
	_, err = userRepo.FindByEmail(admin.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	ownerRole, err := roleRepo.FindByCode(model.RoleOwner)
	if err != nil {
		return err
	}
	user := &model.User{
		Email:    admin.Email,
		FullName: admin.FullName,
		RoleID:   &ownerRole.ID,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := userRepo.Create(user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("admin user created", zap.String("email", admin.Email), zap.String("role", model.RoleOwner))
	return nil
}
