package repository

import (
	"errors"
	"fmt"

	"go-retail-backoffice/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByCode(code string) (*model.Role, error)
	SeedDefaults() error
	GrantIfEmpty(code string, privileges []model.Privilege) (bool, error)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// SeedDefaults creates the default roles that are missing.
func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		var existing model.Role
		err := r.db.Where("code = ?", defaultRole.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := defaultRole
			if err := r.db.Create(&role).Error; err != nil {
				return fmt.Errorf("create role %s: %w", role.Code, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GrantIfEmpty assigns privileges to a role that has none yet, so manual
// edits made after the first start survive restarts.
func (r *roleRepo) GrantIfEmpty(code string, privileges []model.Privilege) (bool, error) {
	role, err := r.FindByCode(code)
	if err != nil {
		return false, err
	}
	if len(role.Privileges) > 0 {
		return false, nil
	}
	if err := r.db.Model(role).Association("Privileges").Replace(privileges); err != nil {
		return false, fmt.Errorf("grant privileges to %s: %w", code, err)
	}
	return true, nil
}
