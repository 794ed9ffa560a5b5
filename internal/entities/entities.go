package entities

import (
	"time"
)

type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleLibrarian Role = "LIBRARIAN"
)

// ParseRole normalizes a user-supplied role string. Unknown or empty
// values fall back to MEMBER, matching how registration treats them.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleLibrarian:
		return RoleLibrarian
	default:
		return RoleMember
	}
}

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Role      Role      `gorm:"size:20;default:'MEMBER'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"index;size:512" json:"title"`
	Author    string    `gorm:"index;size:256" json:"author"`
	Available bool      `gorm:"default:true" json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Loan is a single lending of a book to a user. Each book record is one
// physical copy, so at most one open loan may exist per book.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index" json:"user_id"`
	BookID     uint       `gorm:"index" json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	// FineAmount is in minor currency units (cents).
	FineAmount int  `gorm:"default:0" json:"fine_amount"`
	User       User `gorm:"foreignKey:UserID" json:"-"`
	Book       Book `gorm:"foreignKey:BookID" json:"-"`
}

// IsOpen reports whether the loan has not been returned yet.
func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

// OverdueDays returns the number of whole days the loan is past due at the
// given moment. Never negative.
func (l *Loan) OverdueDays(now time.Time) int {
	days := int(now.Sub(l.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Reservation is a place in a book's FIFO hold queue. Active reservations
// are served in id order; a fulfilled reservation points at the loan that
// satisfied it.
type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"index" json:"user_id"`
	BookID          uint              `gorm:"index" json:"book_id"`
	Status          ReservationStatus `gorm:"size:20;default:'ACTIVE'" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	FulfilledLoanID *uint             `json:"fulfilled_loan_id,omitempty"`
	User            User              `gorm:"foreignKey:UserID" json:"-"`
	Book            Book              `gorm:"foreignKey:BookID" json:"-"`
}

// IsActive reports whether the reservation still holds a place in the queue.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Loan) TableName() string {
	return "loans"
}

func (Reservation) TableName() string {
	return "reservations"
}
