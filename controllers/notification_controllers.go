package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type NotificationController struct {
	notifications *services.NotificationService
	view          presenter
}

func NewNotificationController(notifications *services.NotificationService, clock *utils.Clock) *NotificationController {
	return &NotificationController{notifications: notifications, view: presenter{clock: clock}}
}

// GetAllNotifications -> GET /notifications?type=&unread=true&limit=
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	list, err := nc.notifications.List(c.Request.Context(), c.Query("type"), c.Query("unread") == "true", queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]NotificationResponse, 0, len(list))
	for i := range list {
		out = append(out, nc.view.notification(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", out)
}

// MarkAsRead -> PUT /notifications/:id/read
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := nc.notifications.MarkRead(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", nil)
}
