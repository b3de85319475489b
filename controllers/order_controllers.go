package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type OrderController struct {
	orders *services.OrderService
	view   presenter
}

func NewOrderController(orders *services.OrderService, clock *utils.Clock) *OrderController {
	return &OrderController{orders: orders, view: presenter{clock: clock}}
}

type orderItemRequest struct {
	MenuItemID          uint                   `json:"menu_item_id" binding:"required"`
	Quantity            int                    `json:"quantity" binding:"required,min=1,max=50"`
	Customizations      []models.Customization `json:"customizations"`
	SpecialInstructions string                 `json:"special_instructions" binding:"max=500"`
}

type createOrderRequest struct {
	CustomerID          *uint              `json:"customer_id"`
	TableID             *uint              `json:"table_id"`
	OrderType           models.OrderType   `json:"order_type" binding:"required,oneof=dine_in takeaway delivery"`
	Items               []orderItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
	DiscountCode        string             `json:"discount_code" binding:"max=50"`
	SpecialInstructions string             `json:"special_instructions" binding:"max=1000"`
}

// CreateOrder -> POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := services.CreateOrderInput{
		CustomerID:          req.CustomerID,
		TableID:             req.TableID,
		OrderType:           req.OrderType,
		DiscountCode:        req.DiscountCode,
		SpecialInstructions: req.SpecialInstructions,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			Customizations:      it.Customizations,
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", oc.view.order(order))
}

// GetAllOrders -> GET /orders?status=&customer_id=&table_id=&from=&to=&limit=&offset=
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	f := services.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	var err error
	if f.CustomerID, err = queryUint(c, "customer_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.TableID, err = queryUint(c, "table_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.From, err = oc.view.queryTime(c, "from"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.To, err = oc.view.queryTime(c, "to"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orders, err := oc.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", oc.view.orders(orders))
}

// GetOrderByID -> GET /orders/:id
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := oc.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", oc.view.order(order))
}

// UpdateOrderStatus -> PATCH /orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", oc.view.order(order))
}

// UpdateOrder -> PUT /orders/:id
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		TableID             *uint   `json:"table_id"`
		SpecialInstructions *string `json:"special_instructions" binding:"omitempty,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.UpdateOrder(c.Request.Context(), id, services.OrderUpdate{
		TableID:             req.TableID,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", oc.view.order(order))
}

// GetOrderItems -> GET /orders/:id/items
func (oc *OrderController) GetOrderItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := oc.orders.ListItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order items", oc.view.orderItems(items))
}

// AddOrderItem -> POST /orders/:id/items, responds with the repriced order
func (oc *OrderController) AddOrderItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req orderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := oc.orders.AddItem(c.Request.Context(), id, services.OrderItemInput{
		MenuItemID:          req.MenuItemID,
		Quantity:            req.Quantity,
		Customizations:      req.Customizations,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order item added", oc.view.order(order))
}

// DeleteOrder -> DELETE /orders/:id
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := oc.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}
