package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DinisvCosta/game-planner/internal/middleware"
	"github.com/DinisvCosta/game-planner/pkg/responses"
)

// NotificationController handles notification HTTP requests.
type NotificationController struct {
	broker *Broker
}

func NewNotificationController(broker *Broker) *NotificationController {
	return &NotificationController{broker: broker}
}

// @Summary List unread notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /notifications [get]
// @Security ApiKeyAuth
func (nc *NotificationController) ListUnread(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	unread, err := nc.broker.ListUnread(userID)
	if err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Notifications retrieved", unread)
}

// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /notifications/{id}/read [post]
// @Security ApiKeyAuth
func (nc *NotificationController) MarkRead(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		responses.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := nc.broker.MarkReadStrict(uint(id), userID); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Notification marked as read", nil)
}

// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /notifications/read-all [post]
// @Security ApiKeyAuth
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.Unauthorized(c, "")
		return
	}

	if err := nc.broker.MarkAllRead(userID); err != nil {
		responses.FromError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Notifications marked as read", nil)
}
