package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/service"
)

// TokenVerifier resolves a signed token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	books        service.BookService
	snapshots    service.SnapshotService
	tokens       TokenVerifier
	logger       *logrus.Logger
	protectBooks bool
}

// NewHandler builds the API handler. snapshots may be nil when no object
// storage is configured.
func NewHandler(
	users service.UserService,
	books service.BookService,
	snapshots service.SnapshotService,
	tokens TokenVerifier,
	logger *logrus.Logger,
	protectBooks bool,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:        users,
		books:        books,
		snapshots:    snapshots,
		tokens:       tokens,
		logger:       logger,
		protectBooks: protectBooks,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/user", h.registerUser)
		api.POST("/auth", h.login)
		api.GET("/auth", h.requireAuth(), h.currentUser)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}

	books := api.Group("/book")
	if h.protectBooks {
		books.Use(h.requireAuth())
	}
	{
		books.POST("", h.createBook)
		books.GET("", h.listBooks)
		books.GET("/:authorid", h.getBookByAuthor)
		books.PUT("/:id", h.replaceBook)
		books.DELETE("/:id", h.deleteBook)
	}

	snapshots := api.Group("/snapshots", h.requireAuth())
	{
		snapshots.POST("", h.createSnapshot)
		snapshots.GET("", h.listSnapshots)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Auth-Token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
