package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type ReservationController struct {
	reservations *services.ReservationService
	view         presenter
}

func NewReservationController(reservations *services.ReservationService, clock *utils.Clock) *ReservationController {
	return &ReservationController{reservations: reservations, view: presenter{clock: clock}}
}

// CreateReservation -> POST /reservations
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req struct {
		CustomerID      uint      `json:"customer_id" binding:"required"`
		TableID         uint      `json:"table_id" binding:"required"`
		ReservedFor     time.Time `json:"reserved_for" binding:"required"`
		Duration        int       `json:"duration" binding:"min=0,max=480"`
		PartySize       int       `json:"party_size" binding:"required,min=1"`
		SpecialRequests string    `json:"special_requests"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	r, err := rc.reservations.Create(c.Request.Context(), services.ReservationInput{
		CustomerID:      req.CustomerID,
		TableID:         req.TableID,
		ReservedFor:     req.ReservedFor,
		Duration:        req.Duration,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", rc.view.reservation(r))
}

// GetReservations -> GET /reservations?table_id=&customer_id=&date=&status=
func (rc *ReservationController) GetReservations(c *gin.Context) {
	var f services.ReservationFilter
	var err error
	if f.TableID, err = queryUint(c, "table_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.CustomerID, err = queryUint(c, "customer_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.Date, err = rc.view.queryTime(c, "date"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	f.Status = models.ReservationStatus(c.Query("status"))

	list, err := rc.reservations.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ReservationResponse, 0, len(list))
	for i := range list {
		out = append(out, rc.view.reservation(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", out)
}

// GetReservation -> GET /reservations/:id
func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := rc.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", rc.view.reservation(r))
}

// ConfirmReservation -> PUT /reservations/:id/confirm
func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := rc.reservations.Confirm(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", rc.view.reservation(r))
}

// CancelReservation -> PUT /reservations/:id/cancel
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := rc.reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", rc.view.reservation(r))
}
