package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/confirm"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func newBackend(t *testing.T, mux *http.ServeMux) *backend.API {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return backend.NewAPI(backend.NewClient(srv.URL+"/api", 5*time.Second, session.PolicyReject, zap.NewNop(), nil))
}

func authed() context.Context {
	return session.WithToken(context.Background(), "tok")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func stationScreen(api *backend.API) *Screen[int64, model.Station, validation.StationForm] {
	return NewScreen(StationResource(api, clock), validation.New(clock), Options{
		PageSize: 10,
		Banner:   NewBanner(5*time.Second, clock),
	})
}

func TestCreateStoresResponseBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, []model.Station{})
			return
		}
		var in model.Station
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		// The server decides the id and normalizes fields
		in.ID = 42
		in.City = "İSTANBUL"
		writeJSON(w, http.StatusCreated, in)
	})
	api := newBackend(t, mux)
	screen := stationScreen(api)
	require.NoError(t, screen.Load(authed()))

	form := validation.StationForm{Title: "Bostancı", Personnel: "Ayşe Yılmaz", PhoneNo: "+905551112233", City: "İstanbul", Address: "Sahil Yolu 5", Status: "active"}
	created, err := screen.Create(authed(), form)
	require.NoError(t, err)

	got, ok := screen.Get(42)
	require.True(t, ok)
	assert.Equal(t, created, got)
	assert.Equal(t, "İSTANBUL", got.City)
	assert.Equal(t, []model.Station{created}, screen.Page().Data)

	msg, ok := screen.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, msg.Level)
}

func TestEmptyReplyLeavesLocalCopyAlone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/voyages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, []model.Voyage{{ID: 7, Status: "active"}})
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/voyages/7/cancel", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	api := newBackend(t, mux)
	screen := NewScreen(VoyageResource(api, clock), validation.New(clock), Options{
		PageSize: 10,
		Banner:   NewBanner(5*time.Second, clock),
	})
	require.NoError(t, screen.Load(authed()))

	_, err := CancelVoyage(authed(), screen, api, 7)
	assert.Equal(t, backend.KindServer, backend.KindOf(err))

	v, ok := screen.Get(7)
	require.True(t, ok)
	assert.Equal(t, "active", v.Status)
	_, ok = screen.Get(0)
	assert.False(t, ok)
	assert.Len(t, screen.Items(), 1)

	msg, ok := screen.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, LevelError, msg.Level)
}

func TestCreateBlockedByValidation(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	screen := stationScreen(newBackend(t, mux))

	_, err := screen.Create(authed(), validation.StationForm{Title: "A", Status: "active"})
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "title")
	assert.Equal(t, errs, screen.FormErrors())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestStationDeleteWithActiveVoyages(t *testing.T) {
	var deletes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Station{{ID: 1, Title: "Kadıköy"}, {ID: 2, Title: "Eminönü"}})
	})
	mux.HandleFunc("/api/voyages/by-station/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Voyage{
			{ID: 10, FromStationID: 1, DepartureDate: "2026-03-11", DepartureTime: "10:00", Status: model.VoyageActive},
			{ID: 11, FromStationID: 1, DepartureDate: "2026-03-01", DepartureTime: "10:00", Status: model.VoyageActive},
			{ID: 12, FromStationID: 1, DepartureDate: "2026-03-12", DepartureTime: "10:00", Status: model.VoyageCancelled},
		})
	})
	mux.HandleFunc("/api/stations/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		atomic.AddInt32(&deletes, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	screen := stationScreen(newBackend(t, mux))
	ctx := authed()
	require.NoError(t, screen.Load(ctx))

	require.NoError(t, screen.RequestDelete(ctx, 1))
	assert.Equal(t, confirm.Pending, screen.DeleteState())
	assert.Contains(t, screen.DeleteWarning(), "1 active voyage")
	assert.Equal(t, int32(0), atomic.LoadInt32(&deletes))
	_, stillThere := screen.Get(1)
	assert.True(t, stillThere)

	// Delete anyway
	require.NoError(t, screen.ConfirmDelete(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&deletes))
	assert.Equal(t, confirm.Idle, screen.DeleteState())
	_, stillThere = screen.Get(1)
	assert.False(t, stillThere)
	assert.Len(t, screen.Items(), 1)
}

func TestStationDeleteFailureKeepsStation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Station{{ID: 1, Title: "Kadıköy"}})
	})
	mux.HandleFunc("/api/voyages/by-station/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/stations/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Station is referenced by tickets"})
	})
	screen := stationScreen(newBackend(t, mux))
	ctx := authed()
	require.NoError(t, screen.Load(ctx))

	require.NoError(t, screen.RequestDelete(ctx, 1))
	assert.Empty(t, screen.DeleteWarning())

	err := screen.ConfirmDelete(ctx)
	assert.True(t, backend.IsRejected(err))
	_, stillThere := screen.Get(1)
	assert.True(t, stillThere)

	msg, ok := screen.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, "Station is referenced by tickets", msg.Text)
}

func TestCancelledContextDropsResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(authed())
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		cancel()
		writeJSON(w, http.StatusOK, []model.Station{{ID: 1}})
	})
	screen := stationScreen(newBackend(t, mux))

	err := screen.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, screen.Items())
}

func TestDuplicateSubmitIsBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(w, http.StatusCreated, model.Station{ID: 1, Title: "Kadıköy"})
	})
	screen := stationScreen(newBackend(t, mux))
	form := validation.StationForm{Title: "Kadıköy", Personnel: "Ali Veli", PhoneNo: "+905551112233", City: "İstanbul", Address: "Rıhtım 1", Status: "active"}

	done := make(chan error, 1)
	go func() {
		_, err := screen.Create(authed(), form)
		done <- err
	}()
	<-started

	_, err := screen.Create(authed(), form)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, screen.Items(), 1)
}

func TestScreenFilterSortPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Station{
			{ID: 1, Title: "Kadıköy", City: "İstanbul", Status: "active"},
			{ID: 2, Title: "Alsancak", City: "İzmir", Status: "inactive"},
			{ID: 3, Title: "Bostancı", City: "İstanbul", Status: "active"},
		})
	})
	screen := stationScreen(newBackend(t, mux))
	require.NoError(t, screen.Load(authed()))

	require.NoError(t, screen.SetFilter("city", "istanbul"))
	require.NoError(t, screen.SetSort("title:asc"))
	page := screen.Page()
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Bostancı", page.Data[0].Title)

	assert.ErrorIs(t, screen.SetFilter("color", "red"), ErrUnknownFilter)
	assert.ErrorIs(t, screen.SetSort("color"), ErrUnknownSort)

	screen.ClearFilters()
	assert.Len(t, screen.Page().Data, 3)
}

func TestNotificationRollback(t *testing.T) {
	var deleteFails atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/all", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user_1", r.URL.Query().Get("userId"))
		writeJSON(w, http.StatusOK, []model.Notification{
			{ID: 5, Title: "Ticket created", Type: model.NotificationTicketCreated},
			{ID: 6, Title: "Voyage delayed", Type: model.NotificationVoyageDelayed},
			{ID: 7, Title: "Hello", Type: model.NotificationBroadcast, IsRead: true},
		})
	})
	mux.HandleFunc("/api/notifications/5/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/notifications/6/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/notifications/6", func(w http.ResponseWriter, r *http.Request) {
		if deleteFails.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	center := NewNotificationCenter(newBackend(t, mux).Notifications, "user_1", NewBanner(5*time.Second, clock), nil)
	ctx := authed()
	require.NoError(t, center.Load(ctx))
	assert.Equal(t, 2, center.UnreadCount())

	assert.Error(t, center.MarkRead(ctx, 5))
	assert.Equal(t, 2, center.UnreadCount())

	require.NoError(t, center.MarkRead(ctx, 6))
	assert.Equal(t, 1, center.UnreadCount())

	assert.Error(t, center.MarkAllRead(ctx))
	assert.Equal(t, 1, center.UnreadCount())

	deleteFails.Store(true)
	assert.Error(t, center.Delete(ctx, 6))
	assert.Equal(t, []int64{5, 6, 7}, notificationIDs(center.Items()))

	deleteFails.Store(false)
	require.NoError(t, center.Delete(ctx, 6))
	assert.Equal(t, []int64{5, 7}, notificationIDs(center.Items()))

	assert.ErrorIs(t, center.MarkRead(ctx, 99), ErrUnknownNotification)
}

func notificationIDs(items []model.Notification) []int64 {
	out := make([]int64, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestPollerFetchesImmediatelyAndStops(t *testing.T) {
	var calls int32
	p := NewPoller(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 3, nil
	}, 30*time.Second, nil, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return p.Count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Unmount before the interval elapses
	p.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Stop is idempotent
	p.Stop()
}

func TestPollerRepeatsEveryInterval(t *testing.T) {
	var calls int32
	p := NewPoller(func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}, 10*time.Millisecond, nil, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	stopped := atomic.LoadInt32(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&calls))
}

func TestPollerUsesBackendCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/count", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]int{"count": 4})
	})
	api := newBackend(t, mux)

	p := NewPoller(UnreadCountFunc(api.Notifications, "user_1"), time.Minute, nil, nil)
	p.Start(authed())
	defer p.Stop()
	require.Eventually(t, func() bool { return p.Count() == 4 }, time.Second, 5*time.Millisecond)
}

func TestTicketDeskCancel(t *testing.T) {
	var mu sync.Mutex
	var deleted []string
	markDeleted := func(id string) {
		mu.Lock()
		defer mu.Unlock()
		deleted = append(deleted, id)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tickets/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			markDeleted("1")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, model.Ticket{ID: 1, VoyageID: 10})
	})
	mux.HandleFunc("/api/tickets/2", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			markDeleted("2")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, model.Ticket{ID: 2, VoyageID: 11})
	})
	mux.HandleFunc("/api/tickets/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/voyages/10", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Voyage{ID: 10, DepartureDate: "2026-03-10", DepartureTime: "11:30"})
	})
	mux.HandleFunc("/api/voyages/11", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Voyage{ID: 11, DepartureDate: "2026-03-10", DepartureTime: "18:00"})
	})

	desk := NewTicketDesk(newBackend(t, mux), validation.New(clock), clock)
	ctx := authed()

	err := desk.Cancel(ctx, 1)
	assert.ErrorIs(t, err, ErrAlreadyDeparted)
	assert.Equal(t, "This voyage has already departed. The ticket can no longer be cancelled.", desk.Message(err))

	err = desk.Cancel(ctx, 3)
	assert.ErrorIs(t, err, backend.ErrTicketNotFound)
	assert.False(t, errors.Is(err, ErrAlreadyDeparted))

	require.NoError(t, desk.Cancel(ctx, 2))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"2"}, deleted)
}

func TestTicketDeskLookupValidates(t *testing.T) {
	desk := NewTicketDesk(newBackend(t, http.NewServeMux()), validation.New(clock), clock)
	_, err := desk.Lookup(context.Background(), validation.TicketLookupForm{TicketID: "!", Email: "nope"})
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "ticketID")
	assert.Contains(t, errs, "email")
}

func TestBannerExpires(t *testing.T) {
	now := testNow
	b := NewBanner(5*time.Second, func() time.Time { return now })
	b.Error("Failed to load stations. Please try again later.")

	_, ok := b.Current()
	assert.True(t, ok)

	now = now.Add(5 * time.Second)
	_, ok = b.Current()
	assert.False(t, ok)

	b.Success("Saved")
	b.Dismiss()
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestCollectionInsertRestoresPosition(t *testing.T) {
	c := NewCollection(func(n model.Notification) int64 { return n.ID })
	c.Reset([]model.Notification{{ID: 1}, {ID: 2}, {ID: 3}})

	removed, _ := c.Get(2)
	idx := c.Remove(2)
	assert.Equal(t, 1, idx)
	assert.Equal(t, -1, c.Remove(2))

	c.Insert(idx, removed)
	assert.Equal(t, []int64{1, 2, 3}, notificationIDs(c.Items()))
	assert.False(t, c.Replace(model.Notification{ID: 9}))
}
