package repository

import (
	"errors"
	"fmt"

	"go-retail-backoffice/internal/model"

	"gorm.io/gorm"
)

type PrivilegeRepository interface {
	FindByCodes(codes []string) ([]model.Privilege, error)
	FindAll() ([]model.Privilege, error)
	SeedDefaults() error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db}
}

func (r *privilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if len(codes) == 0 {
		return privileges, nil
	}
	if err := r.db.Where("code IN ?", codes).Order("id").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *privilegeRepo) FindAll() ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := r.db.Order("id").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

// SeedDefaults creates default privileges if they don't exist
func (r *privilegeRepo) SeedDefaults() error {
	for _, p := range model.DefaultPrivileges {
		var existing model.Privilege
		err := r.db.Where("code = ?", p.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			privilege := p
			if err := r.db.Create(&privilege).Error; err != nil {
				return fmt.Errorf("create privilege %s: %w", p.Code, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
