package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// MenuController serves menu items through a MenuCatalog so a cache can sit in front of the database.
type MenuController struct {
	menu services.MenuCatalog
	view presenter
}

func NewMenuController(menu services.MenuCatalog, clock *utils.Clock) *MenuController {
	return &MenuController{menu: menu, view: presenter{clock: clock}}
}

type menuItemRequest struct {
	CategoryID      *uint                  `json:"category_id"`
	Name            string                 `json:"name" binding:"required,max=200"`
	Description     string                 `json:"description"`
	Price           decimal.Decimal        `json:"price"`
	Cost            decimal.Decimal        `json:"cost"`
	PreparationTime int                    `json:"preparation_time" binding:"min=0"`
	IsAvailable     *bool                  `json:"is_available"`
	IsFeatured      bool                   `json:"is_featured"`
	ImageURL        string                 `json:"image_url" binding:"omitempty,url"`
	AllergenInfo    []string               `json:"allergen_info"`
	NutritionalInfo map[string]interface{} `json:"nutritional_info"`
}

// GetAllMenus -> GET /menus?category_id=&available=&featured=&search=&allergen=
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	categoryID, err := queryUint(c, "category_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	items, err := mc.menu.ListMenuItems(c.Request.Context(), services.MenuFilter{
		CategoryID:    categoryID,
		AvailableOnly: c.Query("available") == "true",
		FeaturedOnly:  c.Query("featured") == "true",
		Search:        c.Query("search"),
		Allergen:      c.Query("allergen"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]MenuItemResponse, 0, len(items))
	for i := range items {
		out = append(out, mc.view.menuItem(&items[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", out)
}

// GetMenuByID -> GET /menus/:id
func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := mc.menu.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", mc.view.menuItem(item))
}

// CreateMenu -> POST /menus
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := mc.menu.CreateMenuItem(c.Request.Context(), services.MenuItemInput{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Cost:            req.Cost,
		PreparationTime: req.PreparationTime,
		IsAvailable:     req.IsAvailable,
		IsFeatured:      req.IsFeatured,
		ImageURL:        req.ImageURL,
		AllergenInfo:    req.AllergenInfo,
		NutritionalInfo: req.NutritionalInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", mc.view.menuItem(item))
}

// UpdateMenu -> PUT /menus/:id, only the fields present are changed
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CategoryID      *uint                  `json:"category_id"`
		Name            *string                `json:"name" binding:"omitempty,max=200"`
		Description     *string                `json:"description"`
		Price           *decimal.Decimal       `json:"price"`
		Cost            *decimal.Decimal       `json:"cost"`
		PreparationTime *int                   `json:"preparation_time" binding:"omitempty,min=0"`
		IsAvailable     *bool                  `json:"is_available"`
		IsFeatured      *bool                  `json:"is_featured"`
		ImageURL        *string                `json:"image_url"`
		AllergenInfo    []string               `json:"allergen_info"`
		NutritionalInfo map[string]interface{} `json:"nutritional_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := mc.menu.UpdateMenuItem(c.Request.Context(), id, services.MenuItemUpdate{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Cost:            req.Cost,
		PreparationTime: req.PreparationTime,
		IsAvailable:     req.IsAvailable,
		IsFeatured:      req.IsFeatured,
		ImageURL:        req.ImageURL,
		AllergenInfo:    req.AllergenInfo,
		NutritionalInfo: req.NutritionalInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", mc.view.menuItem(item))
}

// DeleteMenu -> DELETE /menus/:id
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := mc.menu.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}

// ToggleAvailability -> PATCH /menus/:id/availability
func (mc *MenuController) ToggleAvailability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := mc.menu.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu availability updated", mc.view.menuItem(item))
}

// CloneMenu -> POST /menus/:id/clone, the body overrides fields of the copy
func (mc *MenuController) CloneMenu(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CategoryID   *uint            `json:"category_id"`
		Name         *string          `json:"name" binding:"omitempty,max=200"`
		Description  *string          `json:"description"`
		Price        *decimal.Decimal `json:"price"`
		AllergenInfo []string         `json:"allergen_info"`
	}
	// an empty body clones as is
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	item, err := mc.menu.CloneMenuItem(c.Request.Context(), id, services.MenuItemClone{
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		AllergenInfo: req.AllergenInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu cloned", mc.view.menuItem(item))
}
