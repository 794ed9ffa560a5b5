// Package users provides database operations for user management.
package users

import (
	"gorm.io/gorm"

	"github.com/openshelf/circulation/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create registers a new user with the given name and role.
func (r *Repository) Create(name string, role entities.Role) (*entities.User, error) {
	user := &entities.User{
		Name: name,
		Role: role,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID retrieves a user by ID. Returns gorm.ErrRecordNotFound when the
// user does not exist.
func (r *Repository) FindByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Rename updates a user's display name, the only mutable field.
func (r *Repository) Rename(id uint, name string) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Update("name", name).Error
}

// ListAll retrieves all users ordered by id.
func (r *Repository) ListAll() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("id ASC").Find(&users).Error
	return users, err
}
