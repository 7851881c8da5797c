package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

var testNow = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

// fakeBackend serves voyage searches keyed by "from-to" and sold seats keyed by voyage id
type fakeBackend struct {
	voyages  map[string][]model.Voyage
	sold     map[string]model.SeatsSold
	searches int32
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/voyages/search":
		atomic.AddInt32(&f.searches, 1)
		q := r.URL.Query()
		_ = json.NewEncoder(w).Encode(f.voyages[q.Get("fromStationId")+"-"+q.Get("toStationId")])
	case strings.HasPrefix(r.URL.Path, "/api/seats-sold/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/seats-sold/")
		sold, ok := f.sold[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(sold)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newSearcher(t *testing.T, fb *fakeBackend) *Searcher {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	api := backend.NewAPI(backend.NewClient(srv.URL+"/api", 5*time.Second, session.PolicyReject, zap.NewNop(), nil))
	return NewSearcher(api, validation.New(clock), clock, nil)
}

func voyage(id, from, to int64, date string, promo, economy, business int) model.Voyage {
	return model.Voyage{
		ID: id, FromStationID: from, ToStationID: to,
		DepartureDate: date, DepartureTime: "10:00", ArrivalTime: "11:00",
		Status:     model.VoyageActive,
		PromoSeats: promo, EconomySeats: economy, BusinessSeats: business,
	}
}

func roundTrip(passengers int) validation.SearchForm {
	return validation.SearchForm{
		FromStationID: 1,
		ToStationID:   2,
		DepartureDate: "2026-03-12",
		RoundTrip:     true,
		ReturnDate:    "2026-03-14",
		Passengers:    passengers,
	}
}

func TestRoundTripRejectedWhenOutboundIsFull(t *testing.T) {
	fb := &fakeBackend{
		voyages: map[string][]model.Voyage{
			"1-2": {voyage(10, 1, 2, "2026-03-12", 5, 10, 2), voyage(11, 1, 2, "2026-03-12", 0, 4, 0)},
			"2-1": {voyage(20, 2, 1, "2026-03-14", 10, 100, 10)},
		},
		sold: map[string]model.SeatsSold{
			"10": {VoyageID: 10, Promo: 4, Economy: 8, Business: 2},
			"11": {VoyageID: 11, Economy: 2},
		},
	}
	s := newSearcher(t, fb)

	res, err := s.Search(context.Background(), roundTrip(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnoughSeats)

	var le *LegError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, Outbound, le.Leg)
	assert.Equal(t, "Not enough seats available on the outbound voyage for 3 passengers.", Message(err))

	// Both legs were searched, and nothing is bookable on the way out
	assert.Equal(t, int32(2), atomic.LoadInt32(&fb.searches))
	for _, o := range res.Outbound {
		assert.False(t, o.Bookable())
	}
}

func TestRoundTripRejectedWhenReturnIsFull(t *testing.T) {
	fb := &fakeBackend{
		voyages: map[string][]model.Voyage{
			"1-2": {voyage(10, 1, 2, "2026-03-12", 0, 50, 0)},
			"2-1": {voyage(20, 2, 1, "2026-03-14", 0, 2, 0)},
		},
	}
	_, err := newSearcher(t, fb).Search(context.Background(), roundTrip(3))

	var le *LegError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, Return, le.Leg)
	assert.ErrorIs(t, err, ErrNotEnoughSeats)
}

func TestRoundTripSucceeds(t *testing.T) {
	fb := &fakeBackend{
		voyages: map[string][]model.Voyage{
			"1-2": {voyage(10, 1, 2, "2026-03-12", 5, 10, 2)},
			"2-1": {voyage(20, 2, 1, "2026-03-14", 0, 100, 10)},
		},
		sold: map[string]model.SeatsSold{
			"10": {VoyageID: 10, Promo: 4, Economy: 1},
		},
	}
	res, err := newSearcher(t, fb).Search(context.Background(), roundTrip(3))
	require.NoError(t, err)

	require.Len(t, res.Outbound, 1)
	assert.Equal(t, map[string]int{model.ClassPromo: 1, model.ClassEconomy: 9, model.ClassBusiness: 2}, res.Outbound[0].Available)
	assert.Equal(t, []string{model.ClassEconomy}, res.Outbound[0].Classes)

	require.Len(t, res.Return, 1)
	assert.Equal(t, []string{model.ClassEconomy, model.ClassBusiness}, res.Return[0].Classes)
}

func TestOneWaySearchesOnce(t *testing.T) {
	fb := &fakeBackend{
		voyages: map[string][]model.Voyage{
			"1-2": {voyage(10, 1, 2, "2026-03-12", 0, 10, 0)},
		},
	}
	form := roundTrip(1)
	form.RoundTrip = false
	form.ReturnDate = ""

	res, err := newSearcher(t, fb).Search(context.Background(), form)
	require.NoError(t, err)
	assert.Len(t, res.Outbound, 1)
	assert.Empty(t, res.Return)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.searches))
}

func TestSearchSkipsDepartedVoyages(t *testing.T) {
	past := voyage(10, 1, 2, "2026-03-10", 0, 10, 0)
	past.DepartureTime = "07:00"
	fb := &fakeBackend{voyages: map[string][]model.Voyage{"1-2": {past}}}

	form := roundTrip(1)
	form.RoundTrip = false
	form.DepartureDate = "2026-03-10"

	_, err := newSearcher(t, fb).Search(context.Background(), form)
	assert.ErrorIs(t, err, ErrNoVoyages)
	assert.Equal(t, "No outbound voyages found for the selected date.", Message(err))
}

func TestSearchValidatesBeforeCalling(t *testing.T) {
	fb := &fakeBackend{}
	form := roundTrip(11)
	form.ToStationID = form.FromStationID

	_, err := newSearcher(t, fb).Search(context.Background(), form)
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "toStationId")
	assert.Contains(t, errs, "passengers")
	assert.Equal(t, int32(0), atomic.LoadInt32(&fb.searches))
}
