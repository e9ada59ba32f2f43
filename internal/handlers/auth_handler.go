package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/middleware"
	"hazard-service/internal/models"
	"hazard-service/internal/services"
)

// AuthHandler handles sign-in, sign-up and the current session
type AuthHandler struct {
	users  *services.UserService
	perms  *services.PermissionService
	tokens *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, perms *services.PermissionService, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, perms: perms, tokens: tokens}
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token        string              `json:"token"`
	ExpiresAt    time.Time           `json:"expiresAt"`
	User         models.UserResponse `json:"user"`
	Capabilities models.Capabilities `json:"capabilities"`
}

// Login exchanges credentials for a token
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abort(c, err)
		return
	}

	token, exp, err := h.tokens.Issue(user)
	if err != nil {
		abort(c, err)
		return
	}
	caps, err := h.perms.Capabilities(c.Request.Context(), user.ID)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:        token,
		ExpiresAt:    exp,
		User:         user.ToResponse(),
		Capabilities: caps,
	})
}

// Register creates an account awaiting admin approval
// @Summary Sign up
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body services.CreateUserInput true "Account"
// @Success 201 {object} models.UserResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input services.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}
	// Self sign-up cannot pick a privileged role
	if input.Role != "" && input.Role != models.RoleEmployee {
		abort(c, middleware.NewForbiddenError("Only employee accounts can self-register"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.ToResponse())
}

// Me returns the caller's account, capabilities and CRUD matrix
// @Summary Current user
// @Tags Auth
// @Produce json
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	ctx := c.Request.Context()

	user, err := h.users.Get(ctx, actor.ID)
	if err != nil {
		abort(c, err)
		return
	}
	caps, err := h.perms.Capabilities(ctx, actor.ID)
	if err != nil {
		abort(c, err)
		return
	}
	sections, err := h.perms.Sections(ctx, actor.ID)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user.ToResponse(),
		"capabilities": caps,
		"permissions":  sections,
	})
}

// abort hands err to the error middleware
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
