package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/middleware"
	"hazard-service/internal/models"
	"hazard-service/internal/services"
)

// UserHandler handles HTTP requests for user accounts
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ListUsers returns every account without passwords
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.UserResponse
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		if role := c.Query("role"); role != "" && users[i].Role != role {
			continue
		}
		out = append(out, users[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  out,
		"total": len(out),
	})
}

// CreateUser adds an account
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body services.CreateUserInput true "Account"
// @Success 201 {object} models.UserResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.ToResponse())
}

// GetUser returns one account
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// UpdateUser edits an account
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body services.UpdateUserInput true "Changes"
// @Success 200 {object} models.UserResponse
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var input services.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// ApproveUser activates a registered account
// @Summary Approve user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse
// @Router /api/v1/users/{id}/approve [post]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	user, err := h.service.Approve(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// DeleteUser removes an account
// @Summary Delete user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
