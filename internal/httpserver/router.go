package httpserver

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/jwtmiddleware"
	"github.com/Skotchmaster/marketplace/internal/models"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Orders   *OrderHTTP
	Payments *PaymentHTTP
	Coupons  *CouponHTTP
	Seller   *SellerHTTP
	Admin    *AdminHTTP
	Store    *StoreHTTP
	Platform *PlatformHTTP

	// Tenant binds the store database to the request. Nil serves every
	// request from the default database.
	Tenant echo.MiddlewareFunc

	JWTSecret        []byte
	SuperadminSecret []byte

	// Ready reports whether the backing stores answer.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	registerPlatform(e, d)

	api := e.Group("/api")
	if d.Tenant != nil {
		api.Use(d.Tenant)
	}

	authMw := authmw.NewAuthMiddleware(d.JWTSecret)
	sellerOnly := authmw.RequireRole(models.RoleSeller)
	staff := authmw.RequireRole(models.RoleSeller, models.RoleAdmin)

	a := api.Group("/auth")
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.POST("/complete-onboarding", d.Auth.CompleteOnboarding, authMw.RequireOnboarding)
	a.GET("/me", d.Auth.Me, authMw.RequireAuth)
	a.POST("/logout", d.Auth.LogOut)

	u := api.Group("/user", authMw.RequireAuth)
	u.GET("/cart", d.Cart.GetCart)
	u.POST("/cart/items", d.Cart.AddItem)
	u.PUT("/cart/items/:id", d.Cart.UpdateItem)
	u.DELETE("/cart/items/:id", d.Cart.RemoveItem)
	u.POST("/cart/apply-coupon", d.Cart.ApplyCoupon)
	u.POST("/cart/remove-coupon", d.Cart.RemoveCoupon)
	u.GET("/wishlist", d.Cart.Wishlist)
	u.POST("/wishlist", d.Cart.AddToWishlist)
	u.DELETE("/wishlist/:product_id", d.Cart.RemoveFromWishlist)
	u.GET("/addresses", d.Cart.Addresses)
	u.POST("/addresses", d.Cart.CreateAddress)
	u.PUT("/addresses/:id", d.Cart.UpdateAddress)
	u.DELETE("/addresses/:id", d.Cart.DeleteAddress)
	u.PUT("/addresses/:id/set-default", d.Cart.SetDefaultAddress)
	u.GET("/orders", d.Orders.ListOrders)
	u.GET("/orders/:id", d.Orders.GetOrder)
	u.POST("/orders/:id/retry", d.Orders.RetryPayment)
	u.GET("/orders/:id/invoice", d.Orders.Invoice)
	u.POST("/request-seller", d.Auth.RequestSeller)

	p := api.Group("/products")
	p.GET("", d.Catalog.GetProducts)
	p.GET("/filters", d.Catalog.Filters)
	p.GET("/featured", d.Catalog.Featured)
	p.GET("/search", d.Catalog.SearchProducts)
	p.GET("/:id", d.Catalog.GetProduct)
	p.GET("/:id/reviews", d.Catalog.Reviews)
	p.POST("/:id/reviews", d.Catalog.AddReview, authMw.RequireAuth)

	o := api.Group("/orders", authMw.RequireAuth)
	o.POST("", d.Orders.CreateOrder)
	o.POST("/:id/cancel", d.Orders.Cancel)
	o.GET("/:id/track", d.Orders.Track)
	o.PUT("/:id/status", d.Orders.UpdateStatus, staff)

	pay := api.Group("/payments")
	pay.POST("/initiate/razorpay", d.Payments.InitiateRazorpay, authMw.RequireAuth)
	pay.POST("/razorpay/verify", d.Payments.VerifyRazorpay, authMw.RequireAuth)
	pay.POST("/failure", d.Payments.Failure, authMw.RequireAuth)
	pay.POST("/webhooks/razorpay", d.Payments.RazorpayWebhook)
	pay.POST("/webhooks/stripe", d.Payments.StripeWebhook)

	cp := api.Group("/coupons", authMw.RequireAuth)
	cp.POST("", d.Coupons.Create, staff)
	cp.POST("/validate", d.Coupons.Validate)

	s := api.Group("/seller", authMw.RequireAuth, sellerOnly)
	s.GET("/dashboard/stats", d.Seller.Dashboard)
	s.GET("/products", d.Catalog.SellerProducts)
	s.POST("/products", d.Catalog.CreateProduct)
	s.GET("/products/:id", d.Catalog.OwnedProduct)
	s.PUT("/products/:id", d.Catalog.PatchProduct)
	s.DELETE("/products/:id", d.Catalog.DeleteProduct)
	s.PUT("/products/:id/stock", d.Catalog.UpdateStock)
	s.GET("/orders", d.Seller.Orders)
	s.GET("/bank-details", d.Seller.BankDetails)
	s.POST("/bank-details", d.Seller.UpdateBankDetails)
	s.GET("/withdrawals", d.Seller.Withdrawals)
	s.POST("/withdrawals/request", d.Seller.RequestWithdrawal)
	s.POST("/withdrawals/:id/cancel", d.Seller.CancelWithdrawal)
	s.GET("/transactions", d.Seller.Transactions)
	s.GET("/billing/purchase", d.Seller.PurchaseBills)
	s.POST("/billing/purchase", d.Seller.AddPurchaseBill)
	s.GET("/billing/sales", d.Seller.SalesBills)
	s.GET("/categories", d.Catalog.Categories)
	s.GET("/coupons", d.Coupons.List)
	s.POST("/coupons", d.Coupons.Create)
	s.DELETE("/coupons/:id", d.Coupons.Delete)

	adm := api.Group("/admin", authMw.RequireAdmin)
	adm.GET("/dashboard", d.Admin.Dashboard)
	adm.GET("/users", d.Admin.Users)
	adm.PUT("/users/:id", d.Admin.UpdateUser)
	adm.GET("/sellers", d.Admin.Sellers)
	adm.PUT("/sellers/:id/approve", d.Admin.ApproveSeller)
	adm.GET("/seller-requests", d.Admin.SellerRequests)
	adm.POST("/seller-requests/:id/approve", d.Admin.ApproveSellerRequest)
	adm.POST("/seller-requests/:id/reject", d.Admin.RejectSellerRequest)
	adm.GET("/products", d.Catalog.AdminProducts)
	adm.PUT("/products/:id/status", d.Catalog.SetProductStatus)
	adm.GET("/orders", d.Admin.Orders)
	adm.GET("/withdrawals", d.Admin.Withdrawals)
	adm.POST("/withdrawals/:id/approve", d.Admin.ApproveWithdrawal)
	adm.POST("/withdrawals/:id/reject", d.Admin.RejectWithdrawal)
	adm.POST("/withdrawals/:id/complete", d.Admin.CompleteWithdrawal)
	adm.GET("/support", d.Admin.Tickets)
	adm.PUT("/support/:id/status", d.Admin.SetTicketStatus)
	adm.GET("/notifications", d.Admin.Alerts)
	adm.POST("/notifications/send", d.Admin.SendNotification)
	adm.GET("/ads", d.Admin.Ads)
	adm.POST("/ads", d.Admin.CreateAd)
	adm.PUT("/ads/:id", d.Admin.UpdateAd)
	adm.DELETE("/ads/:id", d.Admin.DeleteAd)
	adm.GET("/site-settings", d.Admin.Settings)
	adm.PUT("/site-settings", d.Admin.PutSettings)
	adm.GET("/categories", d.Catalog.Categories)
	adm.POST("/categories", d.Catalog.CreateCategory)
	adm.PUT("/categories/:id", d.Catalog.UpdateCategory)
	adm.DELETE("/categories/:id", d.Catalog.DeleteCategory)
	adm.GET("/payment-gateways", d.Admin.PaymentSettings)
	adm.PUT("/payment-gateways", d.Admin.PutPaymentSettings)
	adm.GET("/coupons", d.Coupons.List)
	adm.POST("/coupons", d.Coupons.Create)
	adm.DELETE("/coupons/:id", d.Coupons.Delete)

	api.GET("/categories", d.Catalog.Categories)
	api.GET("/categories/slug/:slug", d.Catalog.CategoryBySlug)
	api.GET("/ads", d.Store.Ads)
	api.POST("/ads/:id/click", d.Store.ClickAd)
	api.GET("/settings/public", d.Store.PublicSettings)
	api.POST("/uploads", d.Store.Upload, authMw.RequireAuth)
	api.GET("/files/:id/download", d.Store.Download)
	api.POST("/support", d.Store.CreateTicket, authMw.Optional)
	api.POST("/newsletter/subscribe", d.Store.Subscribe)

	n := api.Group("/notifications", authMw.RequireAuth)
	n.GET("", d.Store.Notifications)
	n.PUT("/:id/read", d.Store.MarkRead)
	n.PUT("/read-all", d.Store.MarkAllRead)
}

// registerPlatform mounts the super-admin API outside the store group so it
// never touches a tenant database.
func registerPlatform(e *echo.Echo, d *Deps) {
	if d.Platform == nil {
		return
	}
	sa := e.Group("/api/superadmin")
	sa.POST("/auth/login", d.Platform.Login)
	sa.POST("/licenses/validate", d.Platform.ValidateLicense)

	g := sa.Group("", jwtmiddleware.SuperAdmin(d.SuperadminSecret))
	g.GET("/clients", d.Platform.Clients)
	g.POST("/clients", d.Platform.CreateClient)
	g.GET("/clients/:id", d.Platform.Client)
	g.PUT("/clients/:id", d.Platform.UpdateClient)
	g.DELETE("/clients/:id", d.Platform.DeleteClient)
	g.GET("/licenses", d.Platform.Licenses)
	g.POST("/licenses", d.Platform.CreateLicense)
	g.GET("/subscriptions", d.Platform.Subscriptions)
	g.POST("/subscriptions", d.Platform.UpsertSubscription)
	g.GET("/revenue", d.Platform.Revenue)
	g.POST("/revenue", d.Platform.RecordRevenue)
	g.GET("/config", d.Platform.Config)
	g.PUT("/config", d.Platform.UpsertConfig)
	g.GET("/dashboard/stats", d.Platform.Dashboard)
}
