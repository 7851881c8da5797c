package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/confirm"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]interface{}
	calls  map[string]int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{routes: map[string]interface{}{}, calls: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		fb.mu.Lock()
		fb.calls[route]++
		body, ok := fb.routes[route]
		fb.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (f *fakeBackend) set(route string, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = body
}

func (f *fakeBackend) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func newTestShell(t *testing.T, claims session.Claims) (*Shell, *fakeBackend, *bytes.Buffer) {
	t.Helper()
	fb, srv := newFakeBackend(t)
	api := backend.NewAPI(backend.NewClient(srv.URL, 5*time.Second, session.PolicyOmit, zap.NewNop(), metrics.Discard()))
	now := func() time.Time { return fixedNow }
	out := &bytes.Buffer{}

	sh := NewShell(api, ShellOptions{
		Claims:    claims,
		Validator: validation.New(now),
		ScreenOptions: console.Options{
			PageSize: 10,
			Banner:   console.NewBanner(time.Minute, now),
		},
		PollInterval: time.Hour,
		Timeout:      5 * time.Second,
		Now:          now,
		Out:          out,
	})
	return sh, fb, out
}

func admin() session.Claims {
	return session.Claims{Subject: "user_admin", Role: model.RoleAdmin}
}

func TestStationDeleteAsksForConfirmation(t *testing.T) {
	sh, fb, out := newTestShell(t, admin())
	ctx := context.Background()

	fb.set("GET /stations", []model.Station{
		{ID: 1, Title: "Kadıköy Pier", City: "İstanbul", Status: "active"},
		{ID: 2, Title: "Konak Pier", City: "İzmir", Status: "active"},
	})
	fb.set("GET /voyages/by-station/2", []model.Voyage{
		{ID: 9, FromStationID: 2, DepartureDate: "2026-03-12", DepartureTime: "08:00", Status: "active"},
	})
	fb.set("DELETE /stations/2", nil)

	require.NoError(t, sh.Exec(ctx, "stations load"))
	assert.Contains(t, out.String(), "Kadıköy Pier")
	assert.Contains(t, out.String(), "page 1/1, 2 stations")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "stations filter city=İzmir"))
	assert.NotContains(t, out.String(), "Kadıköy Pier")
	assert.Contains(t, out.String(), "Konak Pier")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "stations delete 2"))
	assert.Contains(t, out.String(), "warning: This station has 1 active voyage")
	assert.Equal(t, 0, fb.count("DELETE /stations/2"))

	require.NoError(t, sh.Exec(ctx, "confirm"))
	assert.Equal(t, 1, fb.count("DELETE /stations/2"))

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "stations list"))
	assert.Contains(t, out.String(), "no stations")

	assert.ErrorIs(t, sh.Exec(ctx, "confirm"), confirm.ErrNotPending)
}

func TestCancelClosesPendingDelete(t *testing.T) {
	sh, fb, out := newTestShell(t, admin())
	ctx := context.Background()
	fb.set("GET /announcements", []model.Announcement{{ID: 3, Title: "Summer schedule"}})

	require.NoError(t, sh.Exec(ctx, "announcements load"))
	require.NoError(t, sh.Exec(ctx, "announcements delete 3"))
	assert.Contains(t, out.String(), "delete announcement 3?")
	require.NoError(t, sh.Exec(ctx, "cancel"))
	assert.Error(t, sh.Exec(ctx, "confirm"))
	assert.Equal(t, 0, fb.count("DELETE /announcements/3"))
}

func TestScreensFollowRole(t *testing.T) {
	ctx := context.Background()

	user, _, _ := newTestShell(t, session.Claims{Subject: "u", Role: model.RoleUser})
	assert.ErrorContains(t, user.Exec(ctx, "stations list"), "unknown command")
	assert.ErrorContains(t, user.Exec(ctx, "users list"), "unknown command")

	manager, _, out := newTestShell(t, session.Claims{Subject: "m", Role: model.RoleManager})
	assert.ErrorContains(t, manager.Exec(ctx, "stations list"), "unknown command")
	require.NoError(t, manager.Exec(ctx, "complaints list"))
	require.NoError(t, manager.Exec(ctx, "help"))
	assert.Contains(t, out.String(), "screens: complaints, users")

	super, _, _ := newTestShell(t, session.Claims{Subject: "s", Role: model.RoleSuper})
	assert.NoError(t, super.Exec(ctx, "logs list"))
}

func TestCreateShowsFieldErrors(t *testing.T) {
	sh, fb, _ := newTestShell(t, admin())
	ctx := context.Background()

	err := sh.Exec(ctx, `stations create {"title":"Kadıköy Pier","personnel":"","phoneno":"+905551112233","city":"İstanbul","address":"Rıhtım Cd. 1","status":"active"}`)
	require.Error(t, err)
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "personnel")
	assert.Contains(t, sh.message(err), "personnel: ")
	assert.Equal(t, 0, fb.count("POST /stations"))

	assert.ErrorContains(t, sh.Exec(ctx, `stations create {"title":`), "invalid JSON")
	assert.ErrorIs(t, sh.Exec(ctx, `logs create {}`), console.ErrUnsupported)
}

func TestVoyageCancelWithEmptyReply(t *testing.T) {
	sh, fb, out := newTestShell(t, admin())
	ctx := context.Background()
	fb.set("GET /voyages", []model.Voyage{{ID: 7, DepartureDate: "2026-03-12", DepartureTime: "08:00", Status: "active"}})
	fb.set("PUT /voyages/7/cancel", nil)

	require.NoError(t, sh.Exec(ctx, "voyages load"))
	err := sh.Exec(ctx, "voyages cancel 7")
	assert.Equal(t, backend.KindServer, backend.KindOf(err))
	assert.Equal(t, 1, fb.count("PUT /voyages/7/cancel"))

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "voyages list"))
	assert.Contains(t, out.String(), "page 1/1, 1 voyages")
}

func TestNotificationCommands(t *testing.T) {
	sh, fb, out := newTestShell(t, admin())
	ctx := context.Background()

	fb.set("GET /notifications/all", []model.Notification{
		{ID: 5, Type: "BROADCAST", Title: "Storm", Message: "Voyages may be delayed"},
		{ID: 6, Type: "TICKET_CREATED", Title: "Ticket", Message: "Booked", IsRead: true},
	})
	fb.set("PUT /notifications/5/read", nil)
	fb.set("PUT /notifications/read-all", nil)

	require.NoError(t, sh.Exec(ctx, "notifications list"))
	assert.Contains(t, out.String(), "*    5")
	assert.Contains(t, out.String(), "1 unread")

	require.NoError(t, sh.Exec(ctx, "notifications read 5"))
	assert.Equal(t, 1, fb.count("PUT /notifications/5/read"))
	assert.Equal(t, 0, sh.notifications.UnreadCount())

	require.NoError(t, sh.Exec(ctx, "notifications read-all"))
	assert.Equal(t, 1, fb.count("PUT /notifications/read-all"))

	// unknown locally, no request
	assert.ErrorIs(t, sh.Exec(ctx, "notifications delete 77"), console.ErrUnknownNotification)
}

func TestTicketCancelAfterDeparture(t *testing.T) {
	sh, fb, _ := newTestShell(t, admin())
	ctx := context.Background()
	fb.set("GET /tickets/4", model.Ticket{ID: 4, VoyageID: 8})
	fb.set("GET /voyages/8", model.Voyage{ID: 8, DepartureDate: "2026-03-09", DepartureTime: "10:00"})

	err := sh.Exec(ctx, "tickets cancel 4")
	require.ErrorIs(t, err, console.ErrAlreadyDeparted)
	assert.Equal(t, "This voyage has already departed. The ticket can no longer be cancelled.", sh.message(err))
	assert.Equal(t, 0, fb.count("DELETE /tickets/4"))

	err = sh.Exec(ctx, "tickets lookup AB-1234 not-an-email")
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)
}

func TestRunPollsUnreadCountAndQuits(t *testing.T) {
	sh, fb, out := newTestShell(t, admin())
	fb.set("GET /notifications/count", map[string]int{"count": 3})

	in, input := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- sh.Run(context.Background(), in) }()

	assert.Eventually(t, func() bool { return sh.poller.Count() == 3 }, time.Second, 10*time.Millisecond)

	_, err := io.WriteString(input, "bogus\nhelp\nquit\nstations list\n")
	require.NoError(t, err)
	input.Close()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), `error: unknown command "bogus", try help`)
	assert.Contains(t, out.String(), "screens: announcements, complaints, logs, stations, users, voyages")
	assert.Contains(t, out.String(), "[3] ferry> ")
	assert.NotContains(t, out.String(), "no stations")
	assert.Equal(t, 1, fb.count("GET /notifications/count"))
}
