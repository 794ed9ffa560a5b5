// Package loans provides database operations for loan records.
package loans

import (
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/circulation/internal/entities"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create opens a new loan for a user and book with the given dates.
func (r *Repository) Create(userID, bookID uint, loanDate, dueDate time.Time) (*entities.Loan, error) {
	loan := &entities.Loan{
		UserID:   userID,
		BookID:   bookID,
		LoanDate: loanDate,
		DueDate:  dueDate,
	}
	if err := r.db.Create(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

// CountOpenByUser counts a user's loans that have not been returned.
func (r *Repository) CountOpenByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("user_id = ? AND returned_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// HasOpenForBook reports whether the book is currently out on loan.
func (r *Repository) HasOpenForBook(bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND returned_at IS NULL", bookID).
		Count(&count).Error
	return count > 0, err
}

// FindOpenForBook retrieves the open loan for a book. Returns
// gorm.ErrRecordNotFound when the book has no open loan.
func (r *Repository) FindOpenForBook(bookID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.
		Where("book_id = ? AND returned_at IS NULL", bookID).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Close marks a loan returned at the given time with the given fine.
// Closing happens exactly once per loan.
func (r *Repository) Close(loanID uint, returnedAt time.Time, fineAmount int) error {
	return r.db.Model(&entities.Loan{}).
		Where("id = ?", loanID).
		Updates(map[string]any{
			"returned_at": returnedAt,
			"fine_amount": fineAmount,
		}).Error
}

// ListAll retrieves all loans, newest first.
func (r *Repository) ListAll() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.Order("id DESC").Find(&loans).Error
	return loans, err
}

// ListOverdue retrieves open loans whose due date is before the given time.
func (r *Repository) ListOverdue(now time.Time) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.
		Where("returned_at IS NULL AND due_date < ?", now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}
