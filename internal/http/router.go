package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/audit"
	"github.com/openshelf/circulation/internal/database"
	"github.com/openshelf/circulation/internal/lending"
	"github.com/openshelf/circulation/internal/tasks"
)

// RouterConfig carries the dependencies for the HTTP router.
type RouterConfig struct {
	DB         *database.Database
	Lending    *lending.Service
	Audit      *audit.Service
	TaskClient *tasks.Client
	// AuditRetentionDays is the default retention for audit cleanup tasks.
	AuditRetentionDays int
	Version            string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.DB, cfg.Version)
	users := NewUserController(cfg.Lending)
	books := NewBookController(cfg.Lending)
	circulation := NewCirculationController(cfg.Lending, cfg.Audit)
	auditCtl := NewAuditController(cfg.Audit)

	router.GET("/health", health.Status)

	api := router.Group("/api")
	{
		api.POST("/users", users.Register)
		api.GET("/users", users.List)
		api.GET("/users/:id", users.Get)
		api.PATCH("/users/:id", users.Rename)

		api.POST("/books", books.Add)
		api.GET("/books", books.List)
		api.GET("/books/:id", books.Get)

		api.POST("/loans", circulation.Borrow)
		api.GET("/loans", circulation.ListLoans)
		api.POST("/returns", circulation.Return)

		api.POST("/reservations", circulation.Reserve)
		api.GET("/reservations", circulation.ListReservations)
		api.DELETE("/reservations/:id", circulation.CancelReservation)

		api.GET("/audit", auditCtl.List)

		if cfg.TaskClient != nil {
			tasksCtl := NewTasksController(cfg.TaskClient, cfg.AuditRetentionDays)
			api.GET("/tasks/types", tasksCtl.ListTaskTypes)
			api.GET("/tasks/:id", tasksCtl.GetTaskStatus)
			api.POST("/tasks/:type/run", tasksCtl.RunTask)
		}
	}

	return router
}
