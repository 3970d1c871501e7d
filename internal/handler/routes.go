package handler

import (
	"nexo-frontend/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Handlers bundles every area handler for route registration.
type Handlers struct {
	Auth     *AuthHandler
	OAuth    *OAuthHandler
	General  *GeneralHandler
	Users    *UsersHandler
	Platform *PlatformHandler
	Company  *CompanyHandler
	Alerts   *AlertsHandler
}

// Limits carries the rate limiters the sensitive route groups sit
// behind.
type Limits struct {
	Credentials *middleware.RateLimiter
	API         *middleware.RateLimiter
}

// Register wires the full route surface. Authenticated areas sit
// behind the session middleware plus the scope gate of their area;
// per-page capability checks live in the handlers.
func Register(e *echo.Echo, authn *middleware.Authenticator, h Handlers, limits Limits) {
	requireAuth := authn.RequireAuth()

	e.GET("/", h.General.Home, requireAuth, authn.NoPermissions())
	e.GET("/check-ticket", h.General.CheckTicket)

	invitations := e.Group("/invitations", requireAuth)
	invitations.GET("", h.General.Invitations)
	invitations.GET("/accept/:invitation_id", h.General.AcceptInvitation)
	invitations.GET("/decline/:invitation_id", h.General.DeclineInvitation)

	auth := e.Group("/auth")
	auth.GET("", h.Auth.LoginForm, authn.AlreadyLogin())
	auth.GET("/register", h.Auth.RegisterForm, authn.AlreadyLogin())
	auth.POST("/login", h.Auth.Login, limits.Credentials.Middleware())
	auth.POST("/register", h.Auth.Register, limits.Credentials.Middleware())
	auth.POST("/forgot-password", h.Auth.ForgotPassword, limits.Credentials.Middleware())
	auth.GET("/logout", h.Auth.Logout, requireAuth)

	oauth := e.Group("/oauth", limits.Credentials.Middleware())
	oauth.GET("/google/start", h.OAuth.Start)
	oauth.GET("/google", h.OAuth.Callback)

	users := e.Group("/users", requireAuth)
	users.GET("/settings", h.Users.Settings)
	users.POST("/api/settings/update_password", h.Users.UpdatePassword, limits.API.Middleware())

	support := e.Group("/support", requireAuth)
	support.GET("", h.General.Support)
	support.GET("/tickets", h.General.SupportTickets)
	support.GET("/tickets/create", h.General.SupportTicketForm)
	support.GET("/tickets/:ticket_id", h.General.SupportTicket)

	generalAPI := e.Group("/api", requireAuth, limits.API.Middleware())
	generalAPI.POST("/support/tickets/create", h.General.CreateSupportTicket)
	generalAPI.POST("/support/tickets/response/create", h.General.CreateSupportResponse)

	platform := e.Group("/platform", requireAuth, authn.PlatformMod())
	platform.GET("", h.Platform.Dashboard)
	platform.GET("/companies", h.Platform.Companies)
	platform.GET("/companies/create", h.Platform.CreateCompanyForm)
	platform.POST("/companies/create", h.Platform.CreateCompany)
	platform.GET("/users", h.Platform.Users)
	platform.GET("/roles", h.Platform.Roles)
	platform.GET("/roles/create", h.Platform.CreateRoleForm)
	platform.POST("/roles/create", h.Platform.CreateRole)
	platform.GET("/roles/update/:role_id", h.Platform.UpdateRoleForm)
	platform.PUT("/roles/update/:role_id", h.Platform.UpdateRole)
	platform.GET("/analytics", h.Platform.Analytics)
	platform.GET("/support", h.Platform.Support)
	platform.GET("/support/tickets/:ticket_id", h.Platform.SupportTicket)

	platformAPI := e.Group("/platform/api", requireAuth, limits.API.Middleware())
	platformAPI.GET("/support/tickets", h.Platform.SupportTicketsAPI)
	platformAPI.POST("/support/tickets/response/create", h.Platform.CreateSupportResponseAPI)

	companies := e.Group("/companies", requireAuth, authn.AtLeastCompany())
	companies.GET("", h.Company.Picker)
	companies.GET("/:company_id", h.Company.Dashboard)
	companies.POST("/:company_id/cash/open", h.Company.OpenCash)

	companies.GET("/:company_id/products", h.Company.Products)
	companies.GET("/:company_id/products/create", h.Company.CreateProductForm)
	companies.POST("/:company_id/products/create", h.Company.CreateProduct)
	companies.GET("/:company_id/products/import", h.Company.ImportProductsForm)
	companies.POST("/:company_id/products/import", h.Company.ImportProducts)
	companies.GET("/:company_id/products/read/:product_id", h.Company.ReadProduct)
	companies.GET("/:company_id/products/:product_id/batchs", h.Company.ProductBatches)
	companies.GET("/:company_id/products/:product_id/batchs/create", h.Company.CreateBatchForm)
	companies.POST("/:company_id/products/:product_id/batchs/create", h.Company.CreateBatch)

	companies.GET("/:company_id/sales", h.Company.Sales)
	companies.GET("/:company_id/sales/check/:sale_id", h.Company.CheckSale)
	companies.GET("/:company_id/sales/create", h.Company.CreateSaleForm)
	companies.GET("/:company_id/sales/create/success/:sale_id", h.Company.SaleSuccess)
	companies.GET("/:company_id/sales/reports", h.Company.SalesReports)

	companies.GET("/:company_id/finance", h.Company.Finance)
	companies.GET("/:company_id/finance/create", h.Company.CreateFinanceForm)
	companies.POST("/:company_id/finance/create", h.Company.CreateFinance)

	companies.GET("/:company_id/settings", h.Company.Settings)

	companies.GET("/:company_id/suppliers", h.Company.Suppliers)
	companies.GET("/:company_id/suppliers/create", h.Company.CreateSupplierForm)
	companies.POST("/:company_id/suppliers/create", h.Company.CreateSupplier)

	companyAPI := e.Group("/companies/:company_id/api", requireAuth, authn.AtLeastCompany(), limits.API.Middleware())
	companyAPI.POST("/cash/close", h.Company.CloseCash)
	companyAPI.GET("/cash/flow/:type", h.Company.CashFlow)
	companyAPI.POST("/sales/check_product_scan", h.Company.CheckProductScan)
	companyAPI.POST("/sales/check_product_search", h.Company.CheckProductSearch)
	companyAPI.POST("/sales/create", h.Company.CreateSale)

	alerts := e.Group("/system-alert")
	alerts.GET("/403", h.Alerts.Forbidden)
	alerts.GET("/404", h.Alerts.NotFound)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return redirect(c, "/system-alert/404")
	})
}
