package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/cache"
	"github.com/yeremiapane/restaurant-ops/config"
	"github.com/yeremiapane/restaurant-ops/controllers"
	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/kds"
	"github.com/yeremiapane/restaurant-ops/middlewares"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// Deps is everything the HTTP layer needs. Redis is optional; when set the
// menu is served through the read-through cache.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *logrus.Logger
	Clock     *utils.Clock
	Publisher events.Publisher
	Hub       *kds.Hub
	Redis     *redis.Client
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	limiter := middlewares.NewRateLimiter(d.Config.Server.RateLimitRPS, d.Config.Server.RateLimitBurst)
	r.Use(middlewares.LoggerMiddleware(d.Log))
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders(d.Config.Server.GinMode == gin.ReleaseMode))
	r.Use(middlewares.CORSMiddlewares(d.Config.Server.CORSOrigin))
	r.Use(limiter.RateLimit())

	store := services.NewStore(d.DB, d.Config.Database.Timeout)
	tokens := utils.NewTokenManager(d.Config.Auth.JWTSecret, d.Config.Auth.TokenTTL)

	menuSvc := services.NewMenuService(store)
	var catalog services.MenuCatalog = menuSvc
	if d.Redis != nil {
		catalog = cache.NewCachedMenu(menuSvc, d.Redis, d.Config.Redis.TTL, d.Log)
	}

	// Inisialisasi controller
	orderCtrl := controllers.NewOrderController(
		services.NewOrderService(store, d.Config.Billing.TaxRate, d.Clock, d.Publisher, d.Log), d.Clock)
	kitchenCtrl := controllers.NewKitchenController(services.NewKitchenService(store, d.Publisher, d.Log), d.Clock)
	billingCtrl := controllers.NewBillingController(services.NewBillingService(store, d.Clock,
		services.BillingOptions{RequireServed: d.Config.Billing.RequireServed}, d.Publisher, d.Log), d.Clock)
	inventoryCtrl := controllers.NewInventoryController(services.NewInventoryService(store, d.Clock, d.Publisher, d.Log), d.Clock)
	menuCtrl := controllers.NewMenuController(catalog, d.Clock)
	categoryCtrl := controllers.NewMenuCategoryController(menuSvc, d.Clock)
	customerCtrl := controllers.NewCustomerController(services.NewCustomerService(store), d.Clock)
	tableCtrl := controllers.NewTableController(services.NewTableService(store), d.Clock)
	reservationCtrl := controllers.NewReservationController(services.NewReservationService(store, d.Clock), d.Clock)
	reportCtrl := controllers.NewReportController(services.NewReportService(store, d.Clock), d.Clock)
	notificationCtrl := controllers.NewNotificationController(services.NewNotificationService(store), d.Clock)
	userCtrl := controllers.NewUserController(services.NewUserService(store, tokens), d.Clock, d.Log)
	kdsCtrl := controllers.NewKDSController(d.Hub, d.Config.Server.CORSOrigin, d.Log)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	// Customer tidak perlu login untuk melihat menu dan membuat order
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/:id", menuCtrl.GetMenuByID)
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:id", orderCtrl.GetOrderByID)
	r.GET("/orders/:id/items", orderCtrl.GetOrderItems)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(tokens))

	// KDS websocket, the token may come as ?token= since browsers cannot set headers
	auth.GET("/kds/ws", middlewares.RoleCheck(models.RoleChef, models.RoleStaff, models.RoleCashier), kdsCtrl.KDSHandler)

	// ORDERS
	orders := auth.Group("/orders")
	{
		orders.GET("", middlewares.RoleCheck(models.RoleStaff, models.RoleChef, models.RoleCashier), orderCtrl.GetAllOrders)
		orders.PATCH("/:id/status", middlewares.RoleCheck(models.RoleStaff, models.RoleChef), orderCtrl.UpdateOrderStatus)
		orders.PUT("/:id", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier), orderCtrl.UpdateOrder)
		orders.POST("/:id/items", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier), orderCtrl.AddOrderItem)
		orders.DELETE("/:id", middlewares.RoleCheck(models.RoleStaff), orderCtrl.DeleteOrder)
	}

	// KITCHEN (chef)
	kitchen := auth.Group("/kitchen", middlewares.RoleCheck(models.RoleChef, models.RoleStaff))
	{
		kitchen.GET("/tickets", kitchenCtrl.GetTickets)
		kitchen.GET("/tickets/:order_id", kitchenCtrl.GetTicket)
		kitchen.PATCH("/tickets/:order_id", kitchenCtrl.UpdateTicket)
		kitchen.GET("/stats", kitchenCtrl.GetStats)
	}

	// BILLING (cashier)
	billing := auth.Group("/billing", middlewares.RoleCheck(models.RoleCashier, models.RoleStaff))
	{
		billing.POST("", billingCtrl.CreateInvoice)
		billing.GET("", billingCtrl.GetInvoices)
		billing.GET("/stats/overview", billingCtrl.GetStats)
		billing.GET("/:id", billingCtrl.GetInvoice)
		billing.GET("/:id/pdf", billingCtrl.GetInvoicePDF)
		billing.PATCH("/:id/payment", billingCtrl.UpdatePaymentStatus)
		billing.POST("/:id/payments", billingCtrl.RecordPayment)
	}

	// INVENTORY: chefs read and move stock, admins manage ingredients
	inventory := auth.Group("/inventory", middlewares.RoleCheck(models.RoleChef, models.RoleStaff))
	{
		inventory.GET("", inventoryCtrl.GetIngredients)
		inventory.GET("/:id", inventoryCtrl.GetIngredient)
		inventory.GET("/:id/movements", inventoryCtrl.GetMovements)
		inventory.PATCH("/:id/stock", inventoryCtrl.AdjustStock)
	}
	inventoryAdmin := auth.Group("/inventory", middlewares.RoleCheck())
	{
		inventoryAdmin.POST("", inventoryCtrl.CreateIngredient)
		inventoryAdmin.PUT("/:id", inventoryCtrl.UpdateIngredient)
		inventoryAdmin.DELETE("/:id", inventoryCtrl.DeleteIngredient)
	}

	// MENU & CATEGORIES (admin)
	menuAdmin := auth.Group("/", middlewares.RoleCheck())
	{
		menuAdmin.POST("/menus", menuCtrl.CreateMenu)
		menuAdmin.PUT("/menus/:id", menuCtrl.UpdateMenu)
		menuAdmin.DELETE("/menus/:id", menuCtrl.DeleteMenu)
		menuAdmin.POST("/menus/:id/clone", menuCtrl.CloneMenu)
		menuAdmin.POST("/categories", categoryCtrl.CreateCategory)
		menuAdmin.PUT("/categories/:id", categoryCtrl.UpdateCategory)
		menuAdmin.DELETE("/categories/:id", categoryCtrl.DeleteCategory)
	}
	// the kitchen takes sold-out dishes off the menu
	auth.PATCH("/menus/:id/availability", middlewares.RoleCheck(models.RoleChef, models.RoleStaff), menuCtrl.ToggleAvailability)

	// CUSTOMERS (staff/cashier)
	customers := auth.Group("/customers", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier))
	{
		customers.GET("", customerCtrl.GetAllCustomers)
		customers.POST("", customerCtrl.CreateCustomer)
		customers.GET("/:id", customerCtrl.GetCustomerByID)
		customers.PUT("/:id", customerCtrl.UpdateCustomer)
		customers.DELETE("/:id", customerCtrl.DeleteCustomer)
	}

	// TABLES & ZONES: staff reads, admin writes
	auth.GET("/tables", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier), tableCtrl.GetAllTables)
	auth.GET("/tables/:id", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier), tableCtrl.GetTableByID)
	auth.GET("/zones", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier), tableCtrl.GetZones)
	tableAdmin := auth.Group("/", middlewares.RoleCheck())
	{
		tableAdmin.POST("/tables", tableCtrl.CreateTable)
		tableAdmin.PUT("/tables/:id", tableCtrl.UpdateTable)
		tableAdmin.DELETE("/tables/:id", tableCtrl.DeleteTable)
		tableAdmin.POST("/zones", tableCtrl.CreateZone)
		tableAdmin.DELETE("/zones/:id", tableCtrl.DeleteZone)
	}

	// RESERVATIONS (staff)
	reservations := auth.Group("/reservations", middlewares.RoleCheck(models.RoleStaff, models.RoleCashier))
	{
		reservations.POST("", reservationCtrl.CreateReservation)
		reservations.GET("", reservationCtrl.GetReservations)
		reservations.GET("/:id", reservationCtrl.GetReservation)
		reservations.PUT("/:id/confirm", reservationCtrl.ConfirmReservation)
		reservations.PUT("/:id/cancel", reservationCtrl.CancelReservation)
	}

	// NOTIFICATIONS (semua role)
	auth.GET("/notifications", notificationCtrl.GetAllNotifications)
	auth.PUT("/notifications/:id/read", notificationCtrl.MarkAsRead)

	// ADMIN
	admin := auth.Group("/", middlewares.RoleCheck())
	{
		admin.GET("/reports/sales", reportCtrl.GetSalesReport)
		admin.GET("/reports/inventory", reportCtrl.GetInventoryReport)
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.POST("/users", userCtrl.Register)
	}

	return r
}
