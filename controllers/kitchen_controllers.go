package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type KitchenController struct {
	kitchen *services.KitchenService
	view    presenter
}

func NewKitchenController(kitchen *services.KitchenService, clock *utils.Clock) *KitchenController {
	return &KitchenController{kitchen: kitchen, view: presenter{clock: clock}}
}

// GetTickets -> GET /kitchen/tickets?status=
func (kc *KitchenController) GetTickets(c *gin.Context) {
	tickets, err := kc.kitchen.ListTickets(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, kc.view.ticket(&tickets[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen tickets", out)
}

// GetTicket -> GET /kitchen/tickets/:order_id
func (kc *KitchenController) GetTicket(c *gin.Context) {
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	ticket, err := kc.kitchen.GetTicket(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen ticket", kc.view.ticket(ticket))
}

// UpdateTicket -> PATCH /kitchen/tickets/:order_id
func (kc *KitchenController) UpdateTicket(c *gin.Context) {
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		EstimatedTime *int                   `json:"estimated_time" binding:"omitempty,min=1"`
		Priority      *models.TicketPriority `json:"priority" binding:"omitempty,oneof=normal high urgent"`
		ChefNotes     *string                `json:"chef_notes" binding:"omitempty,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := kc.kitchen.UpdateTicket(c.Request.Context(), orderID, services.TicketUpdate{
		EstimatedTime: req.EstimatedTime,
		Priority:      req.Priority,
		ChefNotes:     req.ChefNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen ticket updated", kc.view.ticket(ticket))
}

// GetStats -> GET /kitchen/stats
func (kc *KitchenController) GetStats(c *gin.Context) {
	stats, err := kc.kitchen.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen stats", stats)
}
