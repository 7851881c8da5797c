package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// AdminHandler handles the admin back-office routes
type AdminHandler struct {
	api       *backend.API
	validator *validation.Validator
	opts      Options
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(api *backend.API, v *validation.Validator, opts Options) *AdminHandler {
	return &AdminHandler{api: api, validator: v, opts: opts.withDefaults()}
}

// ListStations handles listing stations
// GET /api/admin/stations
func (h *AdminHandler) ListStations(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	stations, err := h.api.Stations.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "stations", "Failed to get stations")
		return
	}
	sendList(c, stations, console.StationFilters, console.StationSorters, "id", params)
}

// CreateStation handles creating a station
// POST /api/admin/stations
func (h *AdminHandler) CreateStation(c *gin.Context) {
	var form validation.StationForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "station", errs)
		return
	}

	station, err := h.api.Stations.Create(c.Request.Context(), form.Station())
	if err != nil {
		sendError(c, h.opts.Logger, err, "station", "Failed to create station")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": station})
}

// UpdateStation handles updating a station
// PUT /api/admin/stations/:id
func (h *AdminHandler) UpdateStation(c *gin.Context) {
	id, ok := parseID(c, "station")
	if !ok {
		return
	}
	var form validation.StationForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "station", errs)
		return
	}

	s := form.Station()
	s.ID = id
	station, err := h.api.Stations.Update(c.Request.Context(), id, s)
	if err != nil {
		sendError(c, h.opts.Logger, err, "station", "Failed to update station")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": station})
}

// DeleteStation handles deleting a station. Unless confirm=true is given,
// a station with active voyages is not deleted and the warning is returned.
// DELETE /api/admin/stations/:id
func (h *AdminHandler) DeleteStation(c *gin.Context) {
	id, ok := parseID(c, "station")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		warning, err := console.StationDeleteCheck(h.api, h.opts.Now)(ctx, id)
		if err != nil {
			sendError(c, h.opts.Logger, err, "station", "Failed to check station voyages")
			return
		}
		if warning != "" {
			c.JSON(http.StatusConflict, gin.H{
				"error":           warning,
				"warning":         warning,
				"confirmRequired": true,
			})
			return
		}
	}

	if err := h.api.Stations.Delete(ctx, id); err != nil {
		sendError(c, h.opts.Logger, err, "station", "Failed to delete station")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListVoyages handles listing every voyage
// GET /api/admin/voyages
func (h *AdminHandler) ListVoyages(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	voyages, err := h.api.Voyages.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyages", "Failed to get voyages")
		return
	}
	sendList(c, voyages, console.VoyageFilters(h.opts.Now), console.VoyageSorters, "departure:desc", params)
}

// CreateVoyage handles creating a voyage
// POST /api/admin/voyages
func (h *AdminHandler) CreateVoyage(c *gin.Context) {
	var form validation.VoyageForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "voyage", errs)
		return
	}

	voyage, err := h.api.Voyages.Create(c.Request.Context(), form.Voyage())
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyage", "Failed to create voyage")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": voyage})
}

// CreateVoyagesBulk handles creating several voyages at once. Nothing is sent
// unless every voyage is valid; field keys are prefixed with the voyage index.
// POST /api/admin/voyages/bulk
func (h *AdminHandler) CreateVoyagesBulk(c *gin.Context) {
	var forms []validation.VoyageForm
	if !bindJSON(c, &forms) {
		return
	}
	if len(forms) == 0 {
		SendErrorResponse(c, http.StatusBadRequest, "At least one voyage is required")
		return
	}

	all := validation.Errors{}
	voyages := make([]model.Voyage, len(forms))
	for i, form := range forms {
		for field, msg := range h.validator.ValidateForm(form) {
			all["["+strconv.Itoa(i)+"]."+field] = msg
		}
		voyages[i] = form.Voyage()
	}
	if !all.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "voyage", all)
		return
	}

	created, err := h.api.Voyages.CreateBulk(c.Request.Context(), voyages)
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyages", "Failed to create voyages")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateVoyage handles updating a voyage
// PUT /api/admin/voyages/:id
func (h *AdminHandler) UpdateVoyage(c *gin.Context) {
	id, ok := parseID(c, "voyage")
	if !ok {
		return
	}
	var form validation.VoyageForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "voyage", errs)
		return
	}

	v := form.Voyage()
	v.ID = id
	voyage, err := h.api.Voyages.Update(c.Request.Context(), id, v)
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyage", "Failed to update voyage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": voyage})
}

// CancelVoyage handles cancelling a voyage
// PUT /api/admin/voyages/:id/cancel
func (h *AdminHandler) CancelVoyage(c *gin.Context) {
	id, ok := parseID(c, "voyage")
	if !ok {
		return
	}

	voyage, err := h.api.Voyages.Cancel(c.Request.Context(), id)
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyage", "Failed to cancel voyage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": voyage})
}

// DeleteVoyage handles deleting a voyage
// DELETE /api/admin/voyages/:id
func (h *AdminHandler) DeleteVoyage(c *gin.Context) {
	id, ok := parseID(c, "voyage")
	if !ok {
		return
	}
	if err := h.api.Voyages.Delete(c.Request.Context(), id); err != nil {
		sendError(c, h.opts.Logger, err, "voyage", "Failed to delete voyage")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAnnouncements handles listing announcements for editing
// GET /api/admin/announcements
func (h *AdminHandler) ListAnnouncements(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	items, err := h.api.Announcements.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "announcements", "Failed to get announcements")
		return
	}
	sendList(c, items, console.AnnouncementFilters, console.AnnouncementSorters, "id:desc", params)
}

// CreateAnnouncement handles creating an announcement
// POST /api/admin/announcements
func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	var form validation.AnnouncementForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "announcement", errs)
		return
	}

	an, err := h.api.Announcements.Create(c.Request.Context(), form.Announcement())
	if err != nil {
		sendError(c, h.opts.Logger, err, "announcement", "Failed to create announcement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": an})
}

// UpdateAnnouncement handles updating an announcement
// PUT /api/admin/announcements/:id
func (h *AdminHandler) UpdateAnnouncement(c *gin.Context) {
	id, ok := parseID(c, "announcement")
	if !ok {
		return
	}
	var form validation.AnnouncementForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "announcement", errs)
		return
	}

	in := form.Announcement()
	in.ID = id
	an, err := h.api.Announcements.Update(c.Request.Context(), id, in)
	if err != nil {
		sendError(c, h.opts.Logger, err, "announcement", "Failed to update announcement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": an})
}

// DeleteAnnouncement handles deleting an announcement
// DELETE /api/admin/announcements/:id
func (h *AdminHandler) DeleteAnnouncement(c *gin.Context) {
	id, ok := parseID(c, "announcement")
	if !ok {
		return
	}
	if err := h.api.Announcements.Delete(c.Request.Context(), id); err != nil {
		sendError(c, h.opts.Logger, err, "announcement", "Failed to delete announcement")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListActivityLogs handles listing activity logs
// GET /api/admin/activity-logs
func (h *AdminHandler) ListActivityLogs(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	logs, err := h.api.ActivityLogs.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "activity logs", "Failed to get activity logs")
		return
	}
	sendList(c, logs, console.ActivityLogFilters, console.ActivityLogSorters, "date:desc", params)
}

// DeleteActivityLog handles deleting an activity log
// DELETE /api/admin/activity-logs/:id
func (h *AdminHandler) DeleteActivityLog(c *gin.Context) {
	id, ok := parseID(c, "activity log")
	if !ok {
		return
	}
	if err := h.api.ActivityLogs.Delete(c.Request.Context(), id); err != nil {
		sendError(c, h.opts.Logger, err, "activity logs", "Failed to delete activity log")
		return
	}
	c.Status(http.StatusNoContent)
}

// Broadcast handles sending a notification to every user
// POST /api/admin/notifications/broadcast
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var form validation.BroadcastForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "broadcast", errs)
		return
	}

	if err := h.api.Notifications.Broadcast(c.Request.Context(), form.Broadcast()); err != nil {
		sendError(c, h.opts.Logger, err, "notifications", "Failed to broadcast notification")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Notification sent to all users"})
}

// DashboardCounts is the admin landing page summary
type DashboardCounts struct {
	Stations         int `json:"stations"`
	ActiveStations   int `json:"activeStations"`
	Voyages          int `json:"voyages"`
	ActiveVoyages    int `json:"activeVoyages"`
	Tickets          int `json:"tickets"`
	Users            int `json:"users"`
	ActiveComplaints int `json:"activeComplaints"`
}

// Dashboard handles the admin summary. Every count is fetched concurrently
// and the request fails when any of them fails.
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var out DashboardCounts
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		stations, err := h.api.Stations.List(ctx)
		if err != nil {
			return err
		}
		out.Stations = len(stations)
		for _, s := range stations {
			if s.Status == model.StationActive {
				out.ActiveStations++
			}
		}
		return nil
	})
	g.Go(func() error {
		voyages, err := h.api.Voyages.List(ctx)
		if err != nil {
			return err
		}
		out.Voyages = len(voyages)
		out.ActiveVoyages = len(console.ActiveVoyages(voyages, h.opts.Now()))
		return nil
	})
	g.Go(func() error {
		n, err := h.api.Tickets.Count(ctx)
		out.Tickets = n
		return err
	})
	g.Go(func() error {
		n, err := h.api.Users.Count(ctx)
		out.Users = n
		return err
	})
	g.Go(func() error {
		complaints, err := h.api.Complaints.Active(ctx)
		out.ActiveComplaints = len(complaints)
		return err
	})

	if err := g.Wait(); err != nil {
		h.opts.Logger.Warn("Dashboard count failed", zap.Error(err))
		sendError(c, h.opts.Logger, err, "dashboard", "Failed to get dashboard counts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
