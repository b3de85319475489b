package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type CustomerController struct {
	customers *services.CustomerService
	view      presenter
}

func NewCustomerController(customers *services.CustomerService, clock *utils.Clock) *CustomerController {
	return &CustomerController{customers: customers, view: presenter{clock: clock}}
}

type customerRequest struct {
	FirstName     string   `json:"first_name" binding:"required,max=100"`
	LastName      string   `json:"last_name" binding:"required,max=100"`
	Email         *string  `json:"email" binding:"omitempty,email"`
	Phone         *string  `json:"phone" binding:"omitempty,max=20"`
	LoyaltyPoints int      `json:"loyalty_points" binding:"min=0"`
	IsVIP         bool     `json:"is_vip"`
	Allergies     []string `json:"allergies"`
}

func (r customerRequest) input() services.CustomerInput {
	return services.CustomerInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		LoyaltyPoints: r.LoyaltyPoints,
		IsVIP:         r.IsVIP,
		Allergies:     r.Allergies,
	}
}

// CreateCustomer -> POST /customers
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cust, err := cc.customers.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer created", cc.view.customer(cust))
}

// GetAllCustomers -> GET /customers?search=&vip=true
func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	list, err := cc.customers.List(c.Request.Context(), c.Query("search"), c.Query("vip") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]CustomerResponse, 0, len(list))
	for i := range list {
		out = append(out, cc.view.customer(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", out)
}

// GetCustomerByID -> GET /customers/:id
func (cc *CustomerController) GetCustomerByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cust, err := cc.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", cc.view.customer(cust))
}

// UpdateCustomer -> PUT /customers/:id
func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cust, err := cc.customers.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer updated", cc.view.customer(cust))
}

// DeleteCustomer -> DELETE /customers/:id
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := cc.customers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer deleted", nil)
}
