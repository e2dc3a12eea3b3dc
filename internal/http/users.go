package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/domain"
	"bookshelf/internal/service"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		CreatedBy: user.CreatedBy,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) registerUser(c *gin.Context) {
	var req service.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}

	token, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, locationBody)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) login(c *gin.Context) {
	var req service.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}

	token, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, locationBody)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}
