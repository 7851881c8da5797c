// Package handler serves the ferry console gateway routes.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/middleware"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// Handlers groups the route handlers of the gateway
type Handlers struct {
	Public        *PublicHandler
	Tickets       *TicketHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
	Manager       *ManagerHandler
}

// Register mounts every route under /api. Session extraction must already
// be installed on router.
func (h *Handlers) Register(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/stations/active", h.Public.ActiveStations)
		api.GET("/voyages/future", h.Public.FutureVoyages)
		api.GET("/voyages/search", h.Public.SearchVoyages)
		api.POST("/tickets/lookup", h.Public.LookupTicket)
		api.GET("/announcements", h.Public.Announcements)
		api.GET("/currency/convert", h.Public.ConvertCurrency)
		api.GET("/weather", h.Public.Weather)
	}

	signedIn := api.Group("", middleware.RequireSession())
	{
		signedIn.GET("/tickets/mine", h.Tickets.MyTickets)
		signedIn.POST("/tickets/:id/cancel", h.Tickets.CancelTicket)
		signedIn.GET("/tickets/:id/download", h.Tickets.DownloadTicket)

		signedIn.GET("/notifications", h.Notifications.GetNotifications)
		signedIn.GET("/notifications/count", h.Notifications.GetUnreadCount)
		signedIn.PUT("/notifications/read-all", h.Notifications.MarkAllRead)
		signedIn.PUT("/notifications/:id/read", h.Notifications.MarkRead)
		signedIn.PUT("/notifications/:id/unread", h.Notifications.MarkUnread)
		signedIn.DELETE("/notifications/:id", h.Notifications.DeleteNotification)

		signedIn.GET("/preferences", h.Notifications.GetPreferences)
		signedIn.PUT("/preferences", h.Notifications.UpdatePreferences)
	}

	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/dashboard", h.Admin.Dashboard)

		admin.GET("/stations", h.Admin.ListStations)
		admin.POST("/stations", h.Admin.CreateStation)
		admin.PUT("/stations/:id", h.Admin.UpdateStation)
		admin.DELETE("/stations/:id", h.Admin.DeleteStation)

		admin.GET("/voyages", h.Admin.ListVoyages)
		admin.POST("/voyages", h.Admin.CreateVoyage)
		admin.POST("/voyages/bulk", h.Admin.CreateVoyagesBulk)
		admin.PUT("/voyages/:id", h.Admin.UpdateVoyage)
		admin.PUT("/voyages/:id/cancel", h.Admin.CancelVoyage)
		admin.DELETE("/voyages/:id", h.Admin.DeleteVoyage)

		admin.GET("/announcements", h.Admin.ListAnnouncements)
		admin.POST("/announcements", h.Admin.CreateAnnouncement)
		admin.PUT("/announcements/:id", h.Admin.UpdateAnnouncement)
		admin.DELETE("/announcements/:id", h.Admin.DeleteAnnouncement)

		admin.GET("/activity-logs", h.Admin.ListActivityLogs)
		admin.DELETE("/activity-logs/:id", h.Admin.DeleteActivityLog)

		admin.POST("/notifications/broadcast", h.Admin.Broadcast)
	}

	manager := api.Group("/manager", middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		manager.GET("/complaints", h.Manager.ListComplaints)
		manager.PUT("/complaints/:id/reply", h.Manager.ReplyComplaint)
		manager.DELETE("/complaints/:id", h.Manager.DeleteComplaint)

		manager.GET("/users", h.Manager.ListUsers)
		manager.PUT("/users/:id/role", h.Manager.UpdateUserRole)
		manager.DELETE("/users/:id", h.Manager.DeleteUser)
	}
}
