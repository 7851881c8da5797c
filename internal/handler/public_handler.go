package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/booking"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/weather"
)

// Options holds what every handler shares
type Options struct {
	PageSize    int
	MaxPageSize int
	Now         func() time.Time
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize < 1 {
		o.PageSize = 10
	}
	if o.MaxPageSize < o.PageSize {
		o.MaxPageSize = 100
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Discard()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// PublicHandler serves the routes that need no session
type PublicHandler struct {
	api       *backend.API
	validator *validation.Validator
	searcher  *booking.Searcher
	desk      *console.TicketDesk
	weather   *weather.Client
	opts      Options
}

// NewPublicHandler creates a new public handler; weather may be nil
func NewPublicHandler(api *backend.API, v *validation.Validator, w *weather.Client, opts Options) *PublicHandler {
	opts = opts.withDefaults()
	return &PublicHandler{
		api:       api,
		validator: v,
		searcher:  booking.NewSearcher(api, v, opts.Now, opts.Logger),
		desk:      console.NewTicketDesk(api, v, opts.Now),
		weather:   w,
		opts:      opts,
	}
}

// ActiveStations handles listing the stations open for booking
// GET /api/stations/active
func (h *PublicHandler) ActiveStations(c *gin.Context) {
	stations, err := h.api.Stations.Active(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "stations", "Failed to get active stations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stations})
}

// FutureVoyages handles listing upcoming voyages with filters, sorting and pagination
// GET /api/voyages/future
func (h *PublicHandler) FutureVoyages(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	voyages, err := h.api.Voyages.Future(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "voyages", "Failed to get future voyages")
		return
	}

	sendList(c, voyages, console.VoyageFilters(h.opts.Now), console.VoyageSorters, "departure", params)
}

// SearchVoyages handles the booking search for one or both legs
// GET /api/voyages/search
func (h *PublicHandler) SearchVoyages(c *gin.Context) {
	form := validation.SearchForm{
		DepartureDate: c.Query("departureDate"),
		ReturnDate:    c.Query("returnDate"),
		Passengers:    1,
	}
	form.FromStationID, _ = strconv.ParseInt(c.Query("fromStationId"), 10, 64)
	form.ToStationID, _ = strconv.ParseInt(c.Query("toStationId"), 10, 64)
	form.RoundTrip, _ = strconv.ParseBool(c.DefaultQuery("roundTrip", strconv.FormatBool(form.ReturnDate != "")))
	if p := c.Query("passengers"); p != "" {
		form.Passengers, _ = strconv.Atoi(p)
	}

	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "search", errs)
		return
	}

	res, err := h.searcher.Search(c.Request.Context(), form)
	if err != nil {
		var le *booking.LegError
		if errors.As(err, &le) {
			status := http.StatusNotFound
			if errors.Is(err, booking.ErrNotEnoughSeats) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": booking.Message(err), "leg": le.Leg, "data": res})
			return
		}
		sendError(c, h.opts.Logger, err, "voyages", "Voyage search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

// LookupTicket handles finding a ticket by ticket ID and email
// POST /api/tickets/lookup
func (h *PublicHandler) LookupTicket(c *gin.Context) {
	var form validation.TicketLookupForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "ticketLookup", errs)
		return
	}

	ticket, err := h.desk.Lookup(c.Request.Context(), form)
	if err != nil {
		sendError(c, h.opts.Logger, err, "ticket", "Ticket lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ticket})
}

// Announcements handles listing announcements
// GET /api/announcements
func (h *PublicHandler) Announcements(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	items, err := h.api.Announcements.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "announcements", "Failed to get announcements")
		return
	}

	sendList(c, items, console.AnnouncementFilters, console.AnnouncementSorters, "id:desc", params)
}

// ConvertCurrency handles converting an amount between currencies
// GET /api/currency/convert
func (h *PublicHandler) ConvertCurrency(c *gin.Context) {
	form := validation.ConversionForm{
		From: strings.ToUpper(c.Query("from")),
		To:   strings.ToUpper(c.Query("to")),
	}
	form.Amount, _ = strconv.ParseFloat(c.Query("amount"), 64)

	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "conversion", errs)
		return
	}

	if form.From == form.To {
		c.JSON(http.StatusOK, gin.H{"data": model.Conversion{
			Amount: form.Amount, From: form.From, To: form.To, Converted: form.Amount, Rate: 1,
		}})
		return
	}

	conv, err := h.api.Currency.Convert(c.Request.Context(), form.Amount, form.From, form.To)
	if err != nil {
		sendError(c, h.opts.Logger, err, "exchange rates", "Currency conversion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conv})
}

// Weather handles the current weather of the given cities, or of every
// active station city when none is given
// GET /api/weather
func (h *PublicHandler) Weather(c *gin.Context) {
	if h.weather == nil {
		SendErrorResponse(c, http.StatusServiceUnavailable, "Weather information is not available.")
		return
	}

	cities := c.QueryArray("city")
	if len(cities) == 0 {
		stations, err := h.api.Stations.Active(c.Request.Context())
		if err != nil {
			sendError(c, h.opts.Logger, err, "stations", "Failed to get station cities")
			return
		}
		cities = stationCities(stations)
	}

	results := h.weather.ForCities(c.Request.Context(), cities)
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// stationCities returns the distinct cities of stations in name order
func stationCities(stations []model.Station) []string {
	seen := map[string]bool{}
	var cities []string
	for _, s := range stations {
		city := strings.TrimSpace(s.City)
		if city == "" || seen[city] {
			continue
		}
		seen[city] = true
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// bindJSON decodes the request body, answering 400 when it is not valid JSON
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		SendErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
