package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/lending"
)

// BookController handles catalogue management.
type BookController struct {
	lending *lending.Service
}

// NewBookController creates a new BookController.
func NewBookController(lendingService *lending.Service) *BookController {
	return &BookController{lending: lendingService}
}

type addBookRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author" binding:"required"`
}

// Add registers a new book; new books start out available.
func (bc *BookController) Add(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required")
		return
	}

	book, err := bc.lending.AddBook(req.Title, req.Author)
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// List returns the catalogue, optionally filtered by a title/author query.
func (bc *BookController) List(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		books, err := bc.lending.SearchBooks(query)
		if err != nil {
			respondLendingError(c, err)
			return
		}
		c.JSON(http.StatusOK, books)
		return
	}

	books, err := bc.lending.ListBooks()
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

// Get returns a single book.
func (bc *BookController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.lending.GetBook(id)
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}
