package repository

import (
	"context"

	"go-retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(user *model.User) error
	UpdateTokenVersion(userID uuid.UUID, version string) error

	// Notification targeting
	FindAllIDs(ctx context.Context) ([]uuid.UUID, error)
	FindIDsByEmails(ctx context.Context, emails []string) ([]uuid.UUID, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Role.Privileges").Preload("Privileges").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Role.Privileges").Preload("Privileges").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) UpdateTokenVersion(userID uuid.UUID, version string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("token_version", version).Error
}

func (r *userRepo) FindAllIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true).Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepo) FindIDsByEmails(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(emails) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email IN ?", emails).Pluck("id", &ids).Error
	return ids, err
}
