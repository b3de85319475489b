package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/kds"
	"github.com/yeremiapane/restaurant-ops/middlewares"
	"github.com/yeremiapane/restaurant-ops/models"
)

type KDSController struct {
	hub      *kds.Hub
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewKDSController accepts websocket upgrades from allowedOrigin ("*" for any).
func NewKDSController(hub *kds.Hub, allowedOrigin string, log *logrus.Logger) *KDSController {
	return &KDSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || strings.EqualFold(origin, allowedOrigin)
			},
		},
		log: log,
	}
}

// KDSHandler -> GET /kds/ws
func (kc *KDSController) KDSHandler(c *gin.Context) {
	role := c.GetString(middlewares.ContextRole)
	switch role {
	case models.RoleChef, models.RoleStaff, models.RoleAdmin, models.RoleCashier:
	default:
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		kc.log.WithError(err).Warn("kds websocket upgrade failed")
		return
	}
	kc.hub.Register(ws, role)

	// screens only listen; reading detects the disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	kc.hub.Unregister(ws)
}
