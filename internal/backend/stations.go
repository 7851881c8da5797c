package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// StationAPI talks to /stations
type StationAPI struct {
	c *Client
}

// List returns every station. Public route.
func (a *StationAPI) List(ctx context.Context) ([]model.Station, error) {
	return get[[]model.Station](ctx, a.c, "/stations", nil, false)
}

// Active returns stations open for booking. Public route.
func (a *StationAPI) Active(ctx context.Context) ([]model.Station, error) {
	return get[[]model.Station](ctx, a.c, "/stations/active", nil, false)
}

// Get returns one station
func (a *StationAPI) Get(ctx context.Context, id int64) (model.Station, error) {
	return get[model.Station](ctx, a.c, pathf("/stations/%d", id), nil, false)
}

// Create adds a station and returns the stored copy
func (a *StationAPI) Create(ctx context.Context, s model.Station) (model.Station, error) {
	return mutate[model.Station](ctx, a.c, http.MethodPost, "/stations", s)
}

// Update replaces a station and returns the stored copy
func (a *StationAPI) Update(ctx context.Context, id int64, s model.Station) (model.Station, error) {
	return mutate[model.Station](ctx, a.c, http.MethodPut, pathf("/stations/%d", id), s)
}

// Delete removes a station
func (a *StationAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/stations/%d", id))
}

// VoyageAPI talks to /voyages
type VoyageAPI struct {
	c *Client
}

// SearchParams filters a voyage search
type SearchParams struct {
	FromStationID int64
	ToStationID   int64
	DepartureDate string
}

func (p SearchParams) query() url.Values {
	q := url.Values{}
	q.Set("fromStationId", formatID(p.FromStationID))
	q.Set("toStationId", formatID(p.ToStationID))
	q.Set("departureDate", p.DepartureDate)
	return q
}

// List returns every voyage (admin view)
func (a *VoyageAPI) List(ctx context.Context) ([]model.Voyage, error) {
	return get[[]model.Voyage](ctx, a.c, "/voyages", nil, true)
}

// Future returns voyages departing from today on. Public route.
func (a *VoyageAPI) Future(ctx context.Context) ([]model.Voyage, error) {
	return get[[]model.Voyage](ctx, a.c, "/voyages/future", nil, false)
}

// Search returns voyages between two stations on a date. Public route.
func (a *VoyageAPI) Search(ctx context.Context, p SearchParams) ([]model.Voyage, error) {
	return get[[]model.Voyage](ctx, a.c, "/voyages/search", p.query(), false)
}

// Get returns one voyage
func (a *VoyageAPI) Get(ctx context.Context, id int64) (model.Voyage, error) {
	return get[model.Voyage](ctx, a.c, pathf("/voyages/%d", id), nil, false)
}

// ByStation returns voyages departing from or arriving at a station
func (a *VoyageAPI) ByStation(ctx context.Context, stationID int64) ([]model.Voyage, error) {
	return get[[]model.Voyage](ctx, a.c, pathf("/voyages/by-station/%d", stationID), nil, true)
}

// Create schedules a voyage
func (a *VoyageAPI) Create(ctx context.Context, v model.Voyage) (model.Voyage, error) {
	return mutate[model.Voyage](ctx, a.c, http.MethodPost, "/voyages", v)
}

// CreateBulk schedules several voyages at once
func (a *VoyageAPI) CreateBulk(ctx context.Context, vs []model.Voyage) ([]model.Voyage, error) {
	return mutate[[]model.Voyage](ctx, a.c, http.MethodPost, "/voyages/bulk", vs)
}

// Update replaces a voyage
func (a *VoyageAPI) Update(ctx context.Context, id int64, v model.Voyage) (model.Voyage, error) {
	return mutate[model.Voyage](ctx, a.c, http.MethodPut, pathf("/voyages/%d", id), v)
}

// Cancel marks a voyage as cancelled and returns the updated voyage
func (a *VoyageAPI) Cancel(ctx context.Context, id int64) (model.Voyage, error) {
	return mutate[model.Voyage](ctx, a.c, http.MethodPut, pathf("/voyages/%d/cancel", id), nil)
}

// Delete removes a voyage
func (a *VoyageAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/voyages/%d", id))
}

// SeatAPI talks to /seats-sold
type SeatAPI struct {
	c *Client
}

// SoldByVoyage returns per-class sold seat counts. Public route.
func (a *SeatAPI) SoldByVoyage(ctx context.Context, voyageID int64) (model.SeatsSold, error) {
	sold, err := get[model.SeatsSold](ctx, a.c, pathf("/seats-sold/%d", voyageID), nil, false)
	if err == nil && sold.VoyageID == 0 {
		sold.VoyageID = voyageID
	}
	return sold, err
}
