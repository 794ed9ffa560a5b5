package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/lending"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// errorCodes maps lending rejections to machine-readable codes.
var errorCodes = map[error]string{
	lending.ErrNotFound:              "not_found",
	lending.ErrBookUnavailable:       "book_unavailable",
	lending.ErrBorrowLimitExceeded:   "borrow_limit_exceeded",
	lending.ErrReservationNotAllowed: "reservation_not_allowed",
	lending.ErrReservationExists:     "reservation_exists",
	lending.ErrReservationNotActive:  "reservation_not_active",
}

// respondLendingError translates a lending service error into an HTTP
// response. Policy rejections get a 4xx with a stable code; anything else
// is an infrastructure failure and is logged and hidden behind a 500.
func respondLendingError(c *gin.Context, err error) {
	if !lending.IsPolicyRejection(err) {
		log.Printf("Lending operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	status := http.StatusConflict
	switch {
	case errors.Is(err, lending.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lending.ErrBorrowLimitExceeded),
		errors.Is(err, lending.ErrReservationNotAllowed):
		status = http.StatusForbidden
	}

	response := ErrorResponse{Error: err.Error()}
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			response.Code = code
			break
		}
	}
	c.JSON(status, response)
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
