package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/middleware"
	"hazard-service/internal/services"
)

// HazardHandler handles HTTP requests for hazards
type HazardHandler struct {
	service *services.HazardService
}

// NewHazardHandler creates a new HazardHandler
func NewHazardHandler(service *services.HazardService) *HazardHandler {
	return &HazardHandler{service: service}
}

// DecideRequest is the body of a decision
type DecideRequest struct {
	Action string `json:"action" binding:"required"`
	services.DecisionPayload
}

// AssignRequest is the body of an assignment
type AssignRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
}

// StatusRequest is the body of a manual status change
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListHazards returns hazards newest first
// @Summary List hazards
// @Tags Hazards
// @Produce json
// @Param status query string false "Filter by status"
// @Param reportedBy query string false "Filter by reporter id"
// @Success 200 {array} models.Hazard
// @Router /api/v1/hazards [get]
func (h *HazardHandler) ListHazards(c *gin.Context) {
	hazards, err := h.service.List(c.Request.Context(), services.HazardFilter{
		Status:     c.Query("status"),
		ReportedBy: c.Query("reportedBy"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  hazards,
		"total": len(hazards),
	})
}

// ReportHazard creates an Open hazard
// @Summary Report a hazard
// @Tags Hazards
// @Accept json
// @Produce json
// @Param request body services.ReportInput true "Hazard"
// @Success 201 {object} models.Hazard
// @Router /api/v1/hazards [post]
func (h *HazardHandler) ReportHazard(c *gin.Context) {
	var input services.ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	hazard, err := h.service.Report(c.Request.Context(), middleware.ActorFromContext(c), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, hazard)
}

// GetHazard returns one hazard
// @Summary Get hazard
// @Tags Hazards
// @Produce json
// @Param id path string true "Hazard ID"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id} [get]
func (h *HazardHandler) GetHazard(c *gin.Context) {
	hazard, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}

// UpdateHazard edits descriptive fields
// @Summary Edit hazard
// @Tags Hazards
// @Accept json
// @Produce json
// @Param id path string true "Hazard ID"
// @Param request body services.EditInput true "Changes"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id} [put]
func (h *HazardHandler) UpdateHazard(c *gin.Context) {
	var input services.EditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	hazard, err := h.service.Edit(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), input)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}

// DeleteHazard removes a hazard
// @Summary Delete hazard
// @Tags Hazards
// @Param id path string true "Hazard ID"
// @Success 204
// @Router /api/v1/hazards/{id} [delete]
func (h *HazardHandler) DeleteHazard(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendToApproval opens the approval round
// @Summary Send hazard to approval
// @Tags Hazards
// @Produce json
// @Param id path string true "Hazard ID"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id}/send-to-approval [post]
func (h *HazardHandler) SendToApproval(c *gin.Context) {
	hazard, err := h.service.SendToApproval(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}

// Decide records an approve or defer decision for the caller's role
// @Summary Approve or defer
// @Tags Hazards
// @Accept json
// @Produce json
// @Param id path string true "Hazard ID"
// @Param request body DecideRequest true "Decision"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id}/decide [post]
func (h *HazardHandler) Decide(c *gin.Context) {
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	hazard, err := h.service.Decide(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Action, req.DecisionPayload)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}

// Assign sets the employees working an approved hazard
// @Summary Assign employees
// @Tags Hazards
// @Accept json
// @Produce json
// @Param id path string true "Hazard ID"
// @Param request body AssignRequest true "Employees"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id}/assign [post]
func (h *HazardHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	hazard, err := h.service.Assign(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.EmployeeIDs)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}

// TransitionStatus moves an approved hazard to InProgress or Resolved
// @Summary Change hazard status
// @Tags Hazards
// @Accept json
// @Produce json
// @Param id path string true "Hazard ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} models.Hazard
// @Router /api/v1/hazards/{id}/status [post]
func (h *HazardHandler) TransitionStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	hazard, err := h.service.TransitionStatus(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, hazard)
}
