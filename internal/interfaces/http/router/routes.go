package router

import (
	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
)

// Handlers bundles every handler mounted under the API prefix.
type Handlers struct {
	Auth    *handler.AuthHandler
	Orders  *handler.OrderHandler
	Reports *handler.ReportHandler
	Exports *handler.ExportHandler
	Profit  *handler.ProfitHandler
	Local   *handler.LocalHandler
	System  *handler.SystemHandler
}

// Guards are the route-specific middleware of the dashboard API.
// LoginLimit throttles POST /auth/login; ViewAccess resolves and authorizes
// the :view parameter; Idempotency guards the bulk mutations against double
// submission. Nil guards are skipped.
type Guards struct {
	LoginLimit  gin.HandlerFunc
	ViewAccess  gin.HandlerFunc
	Idempotency gin.HandlerFunc
}

// DashboardGroups builds the domain groups of the dashboard API.
func DashboardGroups(h Handlers, g Guards) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", chain(g.LoginLimit, h.Auth.Login)...)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	views := NewDomainGroup("views", "/views")
	views.GET("", h.Orders.ListViews)

	view := views.Group("view", "/:view")
	if g.ViewAccess != nil {
		view.Use(g.ViewAccess)
	}

	orders := view.Group("orders", "/orders")
	orders.GET("", h.Orders.List).
		GET("/current", h.Orders.Current).
		POST("", h.Orders.Create).
		GET("/:id", h.Orders.Get).
		PUT("/:id", h.Orders.Update).
		PATCH("/:id/status", h.Orders.UpdateStatus).
		DELETE("/:id", h.Orders.Delete).
		POST("/delete-selected", chain(g.Idempotency, h.Orders.DeleteSelected)...).
		POST("/delete-by-status", chain(g.Idempotency, h.Orders.DeleteByStatus)...).
		POST("/delete-all", chain(g.Idempotency, h.Orders.DeleteAll)...).
		POST("/bulk", chain(g.Idempotency, h.Orders.BulkImport)...).
		POST("/bulk/csv", chain(g.Idempotency, h.Orders.BulkImportCSV)...).
		POST("/bulk-status", chain(g.Idempotency, h.Orders.BulkStatus)...)

	view.Group("selection", "/selection").
		GET("", h.Orders.GetSelection).
		POST("", h.Orders.ApplySelection)

	view.Group("reports", "/reports").
		GET("/summary", h.Reports.Summary).
		GET("/charts", h.Reports.Charts)

	view.Group("exports", "/exports").
		GET("/csv", h.Exports.CSV).
		GET("/xlsx", h.Exports.XLSX).
		GET("/pdf", h.Exports.StatusReportPDF).
		GET("/invoice/:id", h.Exports.InvoicePNG)

	view.Group("artifacts", "/artifacts").
		GET("/*name", h.Exports.Artifact)

	prefill := NewDomainGroup("prefill", "/orders")
	prefill.POST("/prefill", h.Reports.Prefill)

	profit := NewDomainGroup("profit", "/profit")
	profit.Group("stores", "/stores").
		GET("", h.Profit.ListStores).
		POST("", h.Profit.CreateStore).
		DELETE("/:id", h.Profit.DeleteStore)
	profit.Group("calculations", "/calculations").
		GET("", h.Profit.ListCalculations).
		POST("", h.Profit.CreateCalculation).
		DELETE("/:id", h.Profit.DeleteCalculation)
	profit.GET("/summary", h.Profit.Summary)

	local := NewDomainGroup("local", "/local")
	local.Group("addresses", "/addresses").
		GET("", h.Local.ListAddresses).
		POST("", h.Local.CreateAddress).
		PUT("/:id", h.Local.UpdateAddress).
		DELETE("/:id", h.Local.DeleteAddress)
	local.Group("tickets", "/tickets").
		GET("", h.Local.ListTickets).
		POST("", h.Local.CreateTicket).
		POST("/:id/close", h.Local.CloseTicket).
		DELETE("/:id", h.Local.DeleteTicket)
	local.Group("activity", "/activity").
		GET("", h.Local.ListActivity).
		DELETE("", h.Local.ClearActivity)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{auth, views, prefill, profit, local, system}
}

// MountDashboard registers the dashboard groups on r and returns every
// route path relative to the API prefix.
func MountDashboard(r *Router, h Handlers, g Guards) []string {
	var routes []string
	for _, group := range DashboardGroups(h, g) {
		r.Register(group)
		routes = append(routes, group.Routes()...)
	}
	return routes
}

func chain(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}
