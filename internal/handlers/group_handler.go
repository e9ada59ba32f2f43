package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/middleware"
	"hazard-service/internal/models"
	"hazard-service/internal/services"
)

// GroupHandler handles HTTP requests for groups
type GroupHandler struct {
	service *services.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// MemberRequest names the user to add
type MemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// ListGroups returns every group
// @Summary List groups
// @Tags Groups
// @Produce json
// @Success 200 {array} models.Group
// @Router /api/v1/groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  groups,
		"total": len(groups),
	})
}

// CreateGroup adds a group. Permissions may be sent in either shape.
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body services.CreateGroupInput true "Group"
// @Success 201 {object} models.Group
// @Router /api/v1/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var input services.CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	group, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// GetGroup returns one group
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} models.Group
// @Router /api/v1/groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateGroup edits name or description
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body services.UpdateGroupInput true "Changes"
// @Success 200 {object} models.Group
// @Router /api/v1/groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var input services.UpdateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	group, err := h.service.Update(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteGroup removes a group
// @Summary Delete group
// @Tags Groups
// @Param id path string true "Group ID"
// @Success 204
// @Router /api/v1/groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMember adds a user to the group
// @Summary Add member
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body MemberRequest true "Member"
// @Success 200 {object} models.Group
// @Router /api/v1/groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	group, err := h.service.AddMember(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.UserID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// RemoveMember drops a user from the group
// @Summary Remove member
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 200 {object} models.Group
// @Router /api/v1/groups/{id}/members/{userId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	group, err := h.service.RemoveMember(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// ChangePermissions replaces the group's permission record. The body is the
// record itself: legacy flags, a CRUD map or the envelope.
// @Summary Change group permissions
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} models.Group
// @Router /api/v1/groups/{id}/permissions [put]
func (h *GroupHandler) ChangePermissions(c *gin.Context) {
	var perms models.Permissions
	if err := c.ShouldBindJSON(&perms); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	group, err := h.service.ChangePermissions(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), perms)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}
