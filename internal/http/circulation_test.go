package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation/internal/audit"
	"github.com/openshelf/circulation/internal/database"
	auditrepo "github.com/openshelf/circulation/internal/database/audit"
	"github.com/openshelf/circulation/internal/entities"
	"github.com/openshelf/circulation/internal/lending"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *lending.Service, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	lendingService := lending.NewService(db)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	router := NewRouter(RouterConfig{
		DB:      db,
		Lending: lendingService,
		Audit:   auditService,
		Version: "test",
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, lendingService, cleanup
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestBorrowEndpoint(t *testing.T) {
	t.Run("lends an available book", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		user, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)

		w := postJSON(router, "/api/loans", gin.H{"user_id": user.ID, "book_id": book.ID})

		assert.Equal(t, http.StatusCreated, w.Code)

		var loan entities.Loan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loan))
		assert.Equal(t, user.ID, loan.UserID)
		assert.Nil(t, loan.ReturnedAt)
	})

	t.Run("missing user is a 404 with a stable code", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)

		w := postJSON(router, "/api/loans", gin.H{"user_id": 999, "book_id": book.ID})

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp.Code)
	})

	t.Run("borrowing a taken book is a 409", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		bob, err := svc.RegisterUser("Bob", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)
		_, err = svc.Borrow(alice.ID, book.ID)
		require.NoError(t, err)

		w := postJSON(router, "/api/loans", gin.H{"user_id": bob.ID, "book_id": book.ID})

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "book_unavailable", resp.Code)
	})

	t.Run("over the borrow limit is a 403", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			book, err := svc.AddBook("Filler", "Author")
			require.NoError(t, err)
			_, err = svc.Borrow(alice.ID, book.ID)
			require.NoError(t, err)
		}
		extra, err := svc.AddBook("One Too Many", "Author")
		require.NoError(t, err)

		w := postJSON(router, "/api/loans", gin.H{"user_id": alice.ID, "book_id": extra.ID})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestReturnEndpoint(t *testing.T) {
	t.Run("closes the open loan", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)
		_, err = svc.Borrow(alice.ID, book.ID)
		require.NoError(t, err)

		w := postJSON(router, "/api/returns", gin.H{"book_id": book.ID})

		assert.Equal(t, http.StatusOK, w.Code)

		var loan entities.Loan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loan))
		assert.NotNil(t, loan.ReturnedAt)
		assert.Zero(t, loan.FineAmount)
	})

	t.Run("no open loan is a 404", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)

		w := postJSON(router, "/api/returns", gin.H{"book_id": book.ID})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReserveEndpoint(t *testing.T) {
	t.Run("free book is borrowed on the spot", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)

		w := postJSON(router, "/api/reservations", gin.H{"user_id": alice.ID, "book_id": book.ID})

		assert.Equal(t, http.StatusCreated, w.Code)

		var outcome lending.ReserveOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.NotNil(t, outcome.Loan)
		assert.Nil(t, outcome.Reservation)
	})

	t.Run("taken book queues a reservation", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		bob, err := svc.RegisterUser("Bob", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)
		_, err = svc.Borrow(alice.ID, book.ID)
		require.NoError(t, err)

		w := postJSON(router, "/api/reservations", gin.H{"user_id": bob.ID, "book_id": book.ID})

		assert.Equal(t, http.StatusCreated, w.Code)

		var outcome lending.ReserveOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.Nil(t, outcome.Loan)
		require.NotNil(t, outcome.Reservation)
		assert.Equal(t, entities.ReservationStatusActive, outcome.Reservation.Status)
	})

	t.Run("duplicate reservation is a 409", func(t *testing.T) {
		router, svc, cleanup := setupTestRouter(t)
		defer cleanup()

		alice, err := svc.RegisterUser("Alice", entities.RoleMember)
		require.NoError(t, err)
		bob, err := svc.RegisterUser("Bob", entities.RoleMember)
		require.NoError(t, err)
		book, err := svc.AddBook("Dune", "Frank Herbert")
		require.NoError(t, err)
		_, err = svc.Borrow(alice.ID, book.ID)
		require.NoError(t, err)
		_, err = svc.Reserve(bob.ID, book.ID)
		require.NoError(t, err)

		w := postJSON(router, "/api/reservations", gin.H{"user_id": bob.ID, "book_id": book.ID})

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "reservation_exists", resp.Code)
	})
}

func TestCancelReservationEndpoint(t *testing.T) {
	router, svc, cleanup := setupTestRouter(t)
	defer cleanup()

	alice, err := svc.RegisterUser("Alice", entities.RoleMember)
	require.NoError(t, err)
	bob, err := svc.RegisterUser("Bob", entities.RoleMember)
	require.NoError(t, err)
	book, err := svc.AddBook("Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = svc.Borrow(alice.ID, book.ID)
	require.NoError(t, err)
	outcome, err := svc.Reserve(bob.ID, book.ID)
	require.NoError(t, err)

	data, _ := json.Marshal(gin.H{"user_id": bob.ID})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/api/reservations/%d", outcome.Reservation.ID), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUserAndBookEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := postJSON(router, "/api/users", gin.H{"name": "Alice", "role": "LIBRARIAN"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var user entities.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, entities.RoleLibrarian, user.Role)

	w = postJSON(router, "/api/books", gin.H{"title": "Dune", "author": "Frank Herbert"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/books", gin.H{"title": "Dune"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books?q=dune", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var books []entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	assert.Len(t, books, 1)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
}
