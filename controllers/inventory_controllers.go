package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/middlewares"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type InventoryController struct {
	inventory *services.InventoryService
	view      presenter
}

func NewInventoryController(inventory *services.InventoryService, clock *utils.Clock) *InventoryController {
	return &InventoryController{inventory: inventory, view: presenter{clock: clock}}
}

func actor(c *gin.Context) string {
	if id := c.GetUint(middlewares.ContextUserID); id != 0 {
		return fmt.Sprintf("user:%d", id)
	}
	return "system"
}

// StockAdjustmentResponse is the updated ingredient plus the ledger row
// written for the adjustment.
type StockAdjustmentResponse struct {
	IngredientResponse
	Movement MovementResponse `json:"movement"`
}

// AdjustStock -> PATCH /inventory/:id/stock?quantity=&reason=&movement_type=
func (ic *InventoryController) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	raw := c.Query("quantity")
	if raw == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("quantity is required"))
		return
	}
	delta, err := decimal.NewFromString(raw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid quantity %q", raw))
		return
	}

	res, err := ic.inventory.AdjustStock(c.Request.Context(), services.StockAdjustment{
		IngredientID: id,
		Delta:        delta,
		Reason:       c.Query("reason"),
		MovementType: models.MovementType(c.Query("movement_type")),
		Actor:        actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock adjusted", StockAdjustmentResponse{
		IngredientResponse: ic.view.ingredient(&res.Ingredient),
		Movement:           ic.view.movement(&res.Movement),
	})
}

type ingredientRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	Unit         string          `json:"unit" binding:"required,max=20"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	Supplier     string          `json:"supplier" binding:"max=100"`
	IsActive     *bool           `json:"is_active"`
}

// CreateIngredient -> POST /inventory
func (ic *InventoryController) CreateIngredient(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ing, err := ic.inventory.CreateIngredient(c.Request.Context(), services.IngredientInput{
		Name:         req.Name,
		Unit:         req.Unit,
		CostPerUnit:  req.CostPerUnit,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		Supplier:     req.Supplier,
		IsActive:     req.IsActive,
	}, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Ingredient created", ic.view.ingredient(ing))
}

// GetIngredients -> GET /inventory?low_stock_only=true
func (ic *InventoryController) GetIngredients(c *gin.Context) {
	list, err := ic.inventory.ListIngredients(c.Request.Context(), c.Query("low_stock_only") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of ingredients", ic.view.ingredients(list))
}

// GetIngredient -> GET /inventory/:id
func (ic *InventoryController) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ing, err := ic.inventory.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient detail", ic.view.ingredient(ing))
}

// UpdateIngredient -> PUT /inventory/:id
func (ic *InventoryController) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string          `json:"name" binding:"omitempty,max=100"`
		Unit        *string          `json:"unit" binding:"omitempty,max=20"`
		CostPerUnit *decimal.Decimal `json:"cost_per_unit"`
		MinStock    *decimal.Decimal `json:"min_stock"`
		Supplier    *string          `json:"supplier" binding:"omitempty,max=100"`
		IsActive    *bool            `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ing, err := ic.inventory.UpdateIngredient(c.Request.Context(), id, services.IngredientUpdate{
		Name:        req.Name,
		Unit:        req.Unit,
		CostPerUnit: req.CostPerUnit,
		MinStock:    req.MinStock,
		Supplier:    req.Supplier,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient updated", ic.view.ingredient(ing))
}

// DeleteIngredient -> DELETE /inventory/:id
func (ic *InventoryController) DeleteIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ic.inventory.DeleteIngredient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Ingredient deleted", nil)
}

// GetMovements -> GET /inventory/:id/movements?limit=
func (ic *InventoryController) GetMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	moves, err := ic.inventory.Movements(c.Request.Context(), id, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]MovementResponse, 0, len(moves))
	for i := range moves {
		out = append(out, ic.view.movement(&moves[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Stock movements", out)
}
