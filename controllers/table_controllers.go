package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type TableController struct {
	tables *services.TableService
	view   presenter
}

func NewTableController(tables *services.TableService, clock *utils.Clock) *TableController {
	return &TableController{tables: tables, view: presenter{clock: clock}}
}

type tableRequest struct {
	Number   string `json:"number" binding:"required,max=20"`
	ZoneID   *uint  `json:"zone_id"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=20"`
	IsActive *bool  `json:"is_active"`
}

func (r tableRequest) input() services.TableInput {
	return services.TableInput{Number: r.Number, ZoneID: r.ZoneID, Capacity: r.Capacity, IsActive: r.IsActive}
}

// GetAllTables -> GET /tables?zone_id=&active=true
func (tc *TableController) GetAllTables(c *gin.Context) {
	zoneID, err := queryUint(c, "zone_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	list, err := tc.tables.List(c.Request.Context(), zoneID, c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]TableResponse, 0, len(list))
	for i := range list {
		out = append(out, tc.view.table(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", out)
}

// GetTableByID -> GET /tables/:id
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := tc.tables.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", tc.view.table(t))
}

// CreateTable -> POST /tables
func (tc *TableController) CreateTable(c *gin.Context) {
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	t, err := tc.tables.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created", tc.view.table(t))
}

// UpdateTable -> PUT /tables/:id
func (tc *TableController) UpdateTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	t, err := tc.tables.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", tc.view.table(t))
}

// DeleteTable -> DELETE /tables/:id
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := tc.tables.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", nil)
}

// GetZones -> GET /zones
func (tc *TableController) GetZones(c *gin.Context) {
	list, err := tc.tables.ListZones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ZoneResponse, 0, len(list))
	for i := range list {
		out = append(out, tc.view.zone(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of zones", out)
}

// CreateZone -> POST /zones
func (tc *TableController) CreateZone(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	z, err := tc.tables.CreateZone(c.Request.Context(), services.ZoneInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Zone created", tc.view.zone(z))
}

// DeleteZone -> DELETE /zones/:id
func (tc *TableController) DeleteZone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := tc.tables.DeleteZone(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Zone deleted", nil)
}
