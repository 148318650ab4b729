package routes

import (
	"coconut-supply/handlers"
	"coconut-supply/middleware"
	"coconut-supply/models"
	"coconut-supply/realtime"

	"github.com/gin-gonic/gin"
)

// Options carries what the route table needs beyond the handlers.
type Options struct {
	Secret          []byte
	Hub             *realtime.Hub
	LoginRatePerMin int
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	r.GET("/health", h.Health)
	r.GET("/state-machine", handlers.GetStateMachineInfo)

	// ── Push channel ───────────────────────────────────────────────
	if opts.Hub != nil {
		r.GET("/ws", opts.Hub.ServeWS(opts.Secret))
	}

	// ── Users ──────────────────────────────────────────────────────
	users := r.Group("/users")
	{
		login := []gin.HandlerFunc{h.Login}
		if opts.LoginRatePerMin > 0 {
			login = append([]gin.HandlerFunc{middleware.NewRateLimiter(opts.LoginRatePerMin).Middleware()}, login...)
		}
		users.POST("/login", login...)
		users.GET("/profile", middleware.AuthRequired(opts.Secret), h.GetProfile)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(opts.Secret), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users", h.AdminCreateUser)
		admin.PUT("/users/:id", h.AdminUpdateUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
		admin.GET("/drivers", h.AdminListDrivers)

		admin.GET("/coconuts", h.AdminListCoconuts)
		admin.POST("/coconuts", h.AdminCreateCoconut)
		admin.PUT("/coconuts/:id", h.AdminUpdateCoconut)
		admin.DELETE("/coconuts/:id", h.AdminDeleteCoconut)

		admin.GET("/orders", h.AdminListOrders)
		admin.POST("/assign-delivery", h.AdminAssignDelivery)

		admin.GET("/payments", h.AdminListPayments)
		admin.PUT("/payments/:id", h.AdminReconcilePayment)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/vendor")
	vendor.Use(middleware.AuthRequired(opts.Secret), middleware.RoleRequired(models.RoleVendor))
	{
		vendor.GET("/coconuts", h.VendorListCoconuts)
		vendor.GET("/orders/:vendorId", h.VendorListOrders)
		vendor.POST("/order", h.VendorPlaceOrder)
		vendor.POST("/create-checkout-session", h.VendorCreateCheckoutSession)
		vendor.POST("/pay", h.VendorPay)
		vendor.POST("/verify-payment", h.VendorVerifyPayment)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(opts.Secret), middleware.RoleRequired(models.RoleDriver))
	{
		driver.GET("/assigned-orders", h.DriverAssignedOrders)
		driver.PUT("/update-status/:orderId", h.DriverUpdateStatus)
	}
}
