// Package reservations provides database operations for the hold queue.
package reservations

import (
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/circulation/internal/entities"
)

// Repository handles all reservation database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reservations repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create places a new ACTIVE reservation expiring at the given time.
func (r *Repository) Create(userID, bookID uint, expiresAt time.Time) (*entities.Reservation, error) {
	reservation := &entities.Reservation{
		UserID:    userID,
		BookID:    bookID,
		Status:    entities.ReservationStatusActive,
		ExpiresAt: expiresAt,
	}
	if err := r.db.Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// FindByID retrieves a reservation by ID. Returns gorm.ErrRecordNotFound
// when it does not exist.
func (r *Repository) FindByID(id uint) (*entities.Reservation, error) {
	var reservation entities.Reservation
	if err := r.db.First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// HasActive reports whether the user already holds an ACTIVE reservation
// for the book.
func (r *Repository) HasActive(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Reservation{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.ReservationStatusActive).
		Count(&count).Error
	return count > 0, err
}

// FindOldestActiveForBook retrieves the FIFO head of the book's queue:
// the ACTIVE reservation with the lowest id. Returns gorm.ErrRecordNotFound
// when the queue is empty.
func (r *Repository) FindOldestActiveForBook(bookID uint) (*entities.Reservation, error) {
	var reservation entities.Reservation
	err := r.db.
		Where("book_id = ? AND status = ?", bookID, entities.ReservationStatusActive).
		Order("id ASC").
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Fulfil marks a reservation FULFILLED by the given loan.
func (r *Repository) Fulfil(id, loanID uint) error {
	return r.db.Model(&entities.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            entities.ReservationStatusFulfilled,
			"fulfilled_loan_id": loanID,
		}).Error
}

// Cancel marks a reservation CANCELLED.
func (r *Repository) Cancel(id uint) error {
	return r.db.Model(&entities.Reservation{}).
		Where("id = ?", id).
		Update("status", entities.ReservationStatusCancelled).Error
}

// ExpireOlderThan marks every ACTIVE reservation whose expiry date is
// strictly before the given date as EXPIRED. Returns the number of rows
// updated. Safe to run redundantly.
func (r *Repository) ExpireOlderThan(date time.Time) (int64, error) {
	result := r.db.Model(&entities.Reservation{}).
		Where("status = ? AND expires_at < ?", entities.ReservationStatusActive, date).
		Update("status", entities.ReservationStatusExpired)
	return result.RowsAffected, result.Error
}

// ListAll retrieves all reservations, newest first.
func (r *Repository) ListAll() ([]entities.Reservation, error) {
	var reservations []entities.Reservation
	err := r.db.Order("id DESC").Find(&reservations).Error
	return reservations, err
}
