// Package books provides database operations for the book catalogue.
package books

import (
	"gorm.io/gorm"

	"github.com/openshelf/circulation/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a book to the catalogue. New books start out available.
func (r *Repository) Create(title, author string) (*entities.Book, error) {
	book := &entities.Book{
		Title:     title,
		Author:    author,
		Available: true,
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// FindByID retrieves a book by ID. Returns gorm.ErrRecordNotFound when the
// book does not exist.
func (r *Repository) FindByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// SetAvailability updates the stored availability flag. The flag is a cache
// of "no open loan exists"; callers keep it in step with the loans table.
func (r *Repository) SetAvailability(id uint, available bool) error {
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Update("available", available).Error
}

// ListAll retrieves all books ordered by id.
func (r *Repository) ListAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id ASC").Find(&books).Error
	return books, err
}

// Search finds books by title or author (case-insensitive partial match).
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Order("id ASC").
		Find(&books).Error
	return books, err
}
