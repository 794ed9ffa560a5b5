package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/entities"
	"github.com/openshelf/circulation/internal/lending"
)

// UserController handles user registration and lookup.
type UserController struct {
	lending *lending.Service
}

// NewUserController creates a new UserController.
func NewUserController(lendingService *lending.Service) *UserController {
	return &UserController{lending: lendingService}
}

type registerUserRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// Register creates a new user.
func (uc *UserController) Register(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	user, err := uc.lending.RegisterUser(req.Name, entities.ParseRole(req.Role))
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// List returns all users ordered by id.
func (uc *UserController) List(c *gin.Context) {
	users, err := uc.lending.ListUsers()
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get returns a single user.
func (uc *UserController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.lending.GetUser(id)
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type renameUserRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename updates a user's display name, the only mutable user field.
func (uc *UserController) Rename(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req renameUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}
	if err := uc.lending.RenameUser(id, req.Name); err != nil {
		respondLendingError(c, err)
		return
	}
	user, err := uc.lending.GetUser(id)
	if err != nil {
		respondLendingError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
