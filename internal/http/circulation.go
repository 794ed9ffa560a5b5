package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/audit"
	"github.com/openshelf/circulation/internal/lending"
)

// CirculationController exposes the lending workflow: borrowing, returning,
// and the reservation queue.
type CirculationController struct {
	lending *lending.Service
	audit   *audit.Service
}

// NewCirculationController creates a new CirculationController.
func NewCirculationController(lendingService *lending.Service, auditService *audit.Service) *CirculationController {
	return &CirculationController{lending: lendingService, audit: auditService}
}

type borrowRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	BookID uint `json:"book_id" binding:"required"`
}

// Borrow lends a book to a user.
func (cc *CirculationController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id and book_id are required")
		return
	}

	loan, err := cc.lending.Borrow(req.UserID, req.BookID)
	if err != nil {
		cc.audit.LogBorrow(req.UserID, req.BookID, nil, err)
		respondLendingError(c, err)
		return
	}
	cc.audit.LogBorrow(req.UserID, req.BookID, &loan.ID, nil)
	c.JSON(http.StatusCreated, loan)
}

type returnRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// Return closes the open loan for a book. The response carries the closed
// loan with any overdue fine; the copy may have gone straight to the next
// reserver.
func (cc *CirculationController) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	loan, err := cc.lending.Return(req.BookID)
	if err != nil {
		cc.audit.LogReturn(req.BookID, nil, 0, err)
		respondLendingError(c, err)
		return
	}
	cc.audit.LogReturn(req.BookID, &loan.ID, loan.FineAmount, nil)
	c.JSON(http.StatusOK, loan)
}

// ListLoans returns all loans, newest first.
func (cc *CirculationController) ListLoans(c *gin.Context) {
	loans, err := cc.lending.ListLoans()
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

type reserveRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	BookID uint `json:"book_id" binding:"required"`
}

// Reserve queues a user for a book, or borrows it on the spot when the
// book is free. The outcome's "loan" and "reservation" fields say which
// happened.
func (cc *CirculationController) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id and book_id are required")
		return
	}

	outcome, err := cc.lending.Reserve(req.UserID, req.BookID)
	if err != nil {
		cc.audit.LogReserve(req.UserID, req.BookID, nil, false, err)
		respondLendingError(c, err)
		return
	}

	if outcome.Borrowed() {
		cc.audit.LogReserve(req.UserID, req.BookID, &outcome.Loan.ID, true, nil)
		c.JSON(http.StatusCreated, outcome)
		return
	}
	cc.audit.LogReserve(req.UserID, req.BookID, &outcome.Reservation.ID, false, nil)
	c.JSON(http.StatusCreated, outcome)
}

// ListReservations returns all reservations, newest first, after running
// the expiry sweep.
func (cc *CirculationController) ListReservations(c *gin.Context) {
	reservations, err := cc.lending.ListReservations()
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

type cancelReservationRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// CancelReservation withdraws a user's own active reservation.
func (cc *CirculationController) CancelReservation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req cancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id is required")
		return
	}

	if err := cc.lending.CancelReservation(id, req.UserID); err != nil {
		respondLendingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
