package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/events"
	"hazard-service/internal/middleware"
	"hazard-service/internal/models"
	"hazard-service/internal/services"
)

// eventSections maps UI-originated entities to the capability they need
var eventSections = map[string]string{
	services.EntityChecklist: models.SectionChecklists,
	services.EntityTraining:  models.SectionTraining,
}

// NotificationHandler serves the feed, UI events and the live signal stream
type NotificationHandler struct {
	service    *services.NotificationService
	dispatcher services.Dispatcher
	perms      middleware.CapabilityResolver
	bus        services.Subscriber
	heartbeat  time.Duration
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.NotificationService, dispatcher services.Dispatcher, perms middleware.CapabilityResolver, bus services.Subscriber) *NotificationHandler {
	return &NotificationHandler{
		service:    service,
		dispatcher: dispatcher,
		perms:      perms,
		bus:        bus,
		heartbeat:  25 * time.Second,
	}
}

// ListNotifications returns the caller's feed newest first
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param limit query int false "Max records"
// @Success 200 {array} models.Notification
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	unread, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	feed, err := h.service.List(c.Request.Context(), services.NotificationFilter{
		Viewer:     &actor,
		UnreadOnly: unread,
		Limit:      limit,
	})
	if err != nil {
		abort(c, err)
		return
	}
	unreadCount, err := h.service.UnreadCount(c.Request.Context(), &actor)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   feed,
		"total":  len(feed),
		"unread": unreadCount,
	})
}

// MarkRead flags one of the caller's notifications as read
// @Summary Mark notification read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), &actor); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead flags the caller's feed as read
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	changed, err := h.service.MarkAllRead(c.Request.Context(), &actor)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

// ClearNotifications empties the feed
// @Summary Clear notifications
// @Tags Notifications
// @Success 204
// @Router /api/v1/notifications [delete]
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishEvent turns a checklist, training or alert event raised by the UI
// into notifications
// @Summary Publish UI event
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body services.NotificationEvent true "Event"
// @Success 201 {array} models.Notification
// @Router /api/v1/notifications/events [post]
func (h *NotificationHandler) PublishEvent(c *gin.Context) {
	var event services.NotificationEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		abort(c, middleware.NewBadRequestError(err.Error(), nil))
		return
	}

	actor := middleware.ActorFromContext(c)
	switch event.Entity {
	case services.EntityAlert:
		if actor.IsEmployee() {
			abort(c, middleware.NewForbiddenError("Employees cannot raise safety alerts"))
			return
		}
	case services.EntityChecklist, services.EntityTraining:
		if !actor.IsAdmin() {
			caps, err := h.perms.Capabilities(c.Request.Context(), actor.ID)
			if err != nil {
				abort(c, err)
				return
			}
			if !caps.Has(eventSections[event.Entity]) {
				abort(c, middleware.NewForbiddenError(fmt.Sprintf("No access to %s", eventSections[event.Entity])))
				return
			}
		}
	default:
		abort(c, middleware.NewBadRequestError("entity must be checklist, training or alert", map[string]interface{}{"entity": event.Entity}))
		return
	}
	// Fan-out targets are chosen by the server, never by the client
	event.GroupID, event.MemberIDs, event.Audiences = "", nil, nil

	records, err := h.dispatcher.Dispatch(c.Request.Context(), event)
	if err != nil {
		abort(c, err)
		return
	}
	if records == nil {
		records = []models.Notification{}
	}
	c.JSON(http.StatusCreated, gin.H{
		"data":  records,
		"total": len(records),
	})
}

// EventTable lists every (entity, action) pair that produces notifications
// @Summary Notification event table
// @Tags Notifications
// @Produce json
// @Success 200 {array} services.TableEntry
// @Router /api/v1/notifications/table [get]
func (h *NotificationHandler) EventTable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": services.Table()})
}

// Stream pushes bus signals to the client as server-sent events until the
// client disconnects
// @Summary Live change signals
// @Tags Notifications
// @Produce text/event-stream
// @Router /api/v1/notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	ch := make(chan events.Event, 32)
	unsubscribe := h.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			// Slow client; the next signal tells it to re-read anyway
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-ch:
			c.SSEvent(string(e.Signal), e)
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": time.Now().UTC()})
			return true
		case <-ctx.Done():
			return false
		}
	})
}
