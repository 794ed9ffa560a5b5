package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoan_IsOpen(t *testing.T) {
	loan := Loan{}
	assert.True(t, loan.IsOpen())

	returned := time.Now()
	loan.ReturnedAt = &returned
	assert.False(t, loan.IsOpen())
}

func TestLoan_OverdueDays(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	loan := Loan{DueDate: due}

	assert.Equal(t, 0, loan.OverdueDays(due))
	assert.Equal(t, 0, loan.OverdueDays(due.AddDate(0, 0, -3))) // early is never negative
	assert.Equal(t, 6, loan.OverdueDays(due.AddDate(0, 0, 6)))
}

func TestReservation_IsActive(t *testing.T) {
	r := Reservation{Status: ReservationStatusActive}
	assert.True(t, r.IsActive())

	r.Status = ReservationStatusExpired
	assert.False(t, r.IsActive())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleLibrarian, ParseRole("LIBRARIAN"))
	assert.Equal(t, RoleMember, ParseRole("MEMBER"))
	assert.Equal(t, RoleMember, ParseRole(""))
	assert.Equal(t, RoleMember, ParseRole("somebody"))
}
