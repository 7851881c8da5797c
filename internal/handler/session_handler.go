package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/middleware"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/storage"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// TicketHandler handles the signed-in user's tickets
type TicketHandler struct {
	api     *backend.API
	desk    *console.TicketDesk
	archive storage.Archive
	opts    Options
}

// NewTicketHandler creates a new ticket handler; archive may be nil
func NewTicketHandler(api *backend.API, v *validation.Validator, archive storage.Archive, opts Options) *TicketHandler {
	opts = opts.withDefaults()
	if archive == nil {
		archive = storage.Disabled{}
	}
	return &TicketHandler{
		api:     api,
		desk:    console.NewTicketDesk(api, v, opts.Now),
		archive: archive,
		opts:    opts,
	}
}

// MyTickets handles listing the tickets of the session user
// GET /api/tickets/mine
func (h *TicketHandler) MyTickets(c *gin.Context) {
	tickets, err := h.api.Tickets.ByUser(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "tickets", "Failed to get tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tickets})
}

// CancelTicket handles cancelling a ticket whose voyage has not departed
// POST /api/tickets/:id/cancel
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	id, ok := parseID(c, "ticket")
	if !ok {
		return
	}

	if err := h.desk.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, console.ErrAlreadyDeparted) {
			SendErrorResponse(c, http.StatusConflict, h.desk.Message(err))
			return
		}
		sendError(c, h.opts.Logger, err, "ticket", "Failed to cancel ticket")
		return
	}

	if err := h.archive.Delete(c.Request.Context(), id); err != nil {
		h.opts.Logger.Warn("Failed to remove archived ticket", zap.Int64("id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket cancelled successfully"})
}

// DownloadTicket handles streaming the ticket PDF. The backend authorizes
// every download; the archive only saves rendering it again.
// GET /api/tickets/:id/download
func (h *TicketHandler) DownloadTicket(c *gin.Context) {
	id, ok := parseID(c, "ticket")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	filename := fmt.Sprintf("ticket-%d.pdf", id)

	rc, doc, err := h.archive.Open(ctx, id)
	if err == nil {
		defer rc.Close()
		if _, err := h.api.Tickets.Get(ctx, id); err != nil {
			sendError(c, h.opts.Logger, err, "ticket", "Ticket download refused")
			return
		}
		c.Header("X-Archive", "HIT")
		c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, rc, map[string]string{
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
		})
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		h.opts.Logger.Warn("Failed to read ticket archive", zap.Int64("id", id), zap.Error(err))
	}

	data, contentType, err := h.api.Tickets.Download(ctx, id)
	if err != nil {
		sendError(c, h.opts.Logger, err, "ticket", "Failed to download ticket")
		return
	}
	if contentType == "" {
		contentType = "application/pdf"
	}

	if _, err := h.archive.Save(ctx, id, data, contentType); err != nil {
		h.opts.Logger.Warn("Failed to archive ticket", zap.Int64("id", id), zap.Error(err))
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}

// NotificationHandler handles the session user's notifications and preferences
type NotificationHandler struct {
	api       *backend.API
	validator *validation.Validator
	opts      Options
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(api *backend.API, v *validation.Validator, opts Options) *NotificationHandler {
	return &NotificationHandler{api: api, validator: v, opts: opts.withDefaults()}
}

// userID returns the subject of the session token
func userID(c *gin.Context) (string, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.Subject == "" {
		SendErrorResponse(c, http.StatusUnauthorized, "Your session has expired. Please sign in again.")
		return "", false
	}
	return claims.Subject, true
}

// GetNotifications handles listing notifications, optionally only unread ones
// GET /api/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	fetch := h.api.Notifications.All
	if c.Query("unread") == "true" {
		fetch = h.api.Notifications.Unread
	}
	items, err := fetch(c.Request.Context(), uid)
	if err != nil {
		sendError(c, h.opts.Logger, err, "notifications", "Failed to get notifications")
		return
	}

	if lang := c.Query("lang"); lang != "" {
		for i := range items {
			items[i].Title, items[i].Message = items[i].Localized(lang)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// GetUnreadCount handles retrieving the unread notification count
// GET /api/notifications/count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	count, err := h.api.Notifications.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		sendError(c, h.opts.Logger, err, "notifications", "Failed to get notification count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead handles marking a notification as read
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	h.update(c, h.api.Notifications.MarkRead, "Failed to mark notification as read")
}

// MarkUnread handles marking a notification as unread
// PUT /api/notifications/:id/unread
func (h *NotificationHandler) MarkUnread(c *gin.Context) {
	h.update(c, h.api.Notifications.MarkUnread, "Failed to mark notification as unread")
}

// DeleteNotification handles deleting a notification
// DELETE /api/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	h.update(c, h.api.Notifications.Delete, "Failed to delete notification")
}

func (h *NotificationHandler) update(c *gin.Context, fn func(ctx context.Context, id int64) error, message string) {
	id, ok := parseID(c, "notification")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		sendError(c, h.opts.Logger, err, "notifications", message)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead handles marking every notification of the user as read
// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.api.Notifications.MarkAllRead(c.Request.Context(), uid); err != nil {
		sendError(c, h.opts.Logger, err, "notifications", "Failed to mark notifications as read")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPreferences handles reading the user's preferences
// GET /api/preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.api.Users.Preferences(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "preferences", "Failed to get preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prefs})
}

// UpdatePreferences handles saving the user's preferences
// PUT /api/preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var form validation.PreferencesForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "preferences", errs)
		return
	}

	prefs, err := h.api.Users.UpdatePreferences(c.Request.Context(), form.Preferences())
	if err != nil {
		sendError(c, h.opts.Logger, err, "preferences", "Failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prefs})
}
