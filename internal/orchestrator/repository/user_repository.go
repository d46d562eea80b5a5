package repository

import (
	"context"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// UserRepository reads the users owned by the session service.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindActiveAdmins(ctx context.Context) ([]entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

// NewUserRepository creates a new GORM-based user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveAdmins(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", entity.UserRoleAdmin, entity.UserStatusActive).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}
