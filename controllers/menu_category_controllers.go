package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type MenuCategoryController struct {
	menu *services.MenuService
	view presenter
}

func NewMenuCategoryController(menu *services.MenuService, clock *utils.Clock) *MenuCategoryController {
	return &MenuCategoryController{menu: menu, view: presenter{clock: clock}}
}

type categoryRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

func (r categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:         r.Name,
		Description:  r.Description,
		DisplayOrder: r.DisplayOrder,
		IsActive:     r.IsActive,
	}
}

func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	list, err := mcc.menu.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]CategoryResponse, 0, len(list))
	for i := range list {
		out = append(out, mcc.view.category(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", out)
}

func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cat, err := mcc.menu.CreateCategory(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", mcc.view.category(cat))
}

func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cat, err := mcc.menu.UpdateCategory(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", mcc.view.category(cat))
}

// DeleteCategory detaches the category's menu items rather than deleting them.
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := mcc.menu.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", nil)
}
