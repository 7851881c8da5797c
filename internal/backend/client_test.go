package backend

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
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
)

func newTestAPI(t *testing.T, policy session.Policy, h http.HandlerFunc) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/api", 5*time.Second, policy, zap.NewNop(), nil)
	return NewAPI(c), srv
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		assert.Equal(t, "/api/voyages", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Voyage{{ID: 1}})
	})

	ctx := session.WithToken(context.Background(), "tok-123")
	voyages, err := api.Voyages.List(ctx)
	require.NoError(t, err)
	assert.Len(t, voyages, 1)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClientPublicRouteOmitsAuthorization(t *testing.T) {
	var hadAuth bool
	api, _ := newTestAPI(t, session.PolicyBearerNull, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode([]model.Station{{ID: 1, Title: "Kadıköy"}})
	})

	stations, err := api.Stations.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Kadıköy", stations[0].Title)
	assert.False(t, hadAuth)
}

func TestClientMissingTokenPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    session.Policy
		wantCalls int32
		wantAuth  string
		wantKind  Kind
	}{
		{"reject makes no call", session.PolicyReject, 0, "", KindNoSession},
		{"legacy sends bearer null", session.PolicyBearerNull, 1, "Bearer null", 0},
		{"omit sends no header", session.PolicyOmit, 1, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			var gotAuth string
			api, _ := newTestAPI(t, tt.policy, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusNoContent)
			})

			// Every privileged mutation follows the same policy
			errs := []error{
				api.Stations.Delete(context.Background(), 1),
				api.Complaints.Delete(context.Background(), 2),
				api.Notifications.MarkRead(context.Background(), 3),
			}
			for _, err := range errs {
				assert.Equal(t, tt.wantKind, KindOf(err))
			}
			assert.Equal(t, tt.wantCalls*int32(len(errs)), atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantAuth, gotAuth)
		})
	}
}

func TestClientErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		kind    Kind
		message string
	}{
		{http.StatusUnauthorized, `{"error":"expired"}`, KindUnauthorized, "expired"},
		{http.StatusForbidden, ``, KindForbidden, ""},
		{http.StatusNotFound, `{"message":"Station not found"}`, KindNotFound, "Station not found"},
		{http.StatusConflict, `{"message":"Station has active voyages"}`, KindRejected, "Station has active voyages"},
		{http.StatusUnprocessableEntity, `plain text reason`, KindRejected, "plain text reason"},
		{http.StatusInternalServerError, `{"message":"boom"}`, KindServer, "boom"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.Stations.Get(context.Background(), 7)
			require.Error(t, err)

			var be *Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, tt.message, be.Message)
			assert.Equal(t, "GET /stations/7", be.Op)
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	api, srv := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := api.Stations.List(context.Background())
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "Failed to load stations. Please try again later.", UserMessage(err, "stations"))
}

func TestClientSendsJSONBody(t *testing.T) {
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in model.Station
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = 42
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})

	ctx := session.WithToken(context.Background(), "tok")
	created, err := api.Stations.Create(ctx, model.Station{Title: "Bostancı", City: "İstanbul"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "İstanbul", created.City)
}

func TestTicketLookup(t *testing.T) {
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tickets/ticketID/TCK-1", r.URL.Path)
		if r.URL.Query().Get("email") != "ayse@example.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(model.Ticket{ID: 9, TicketID: "TCK-1"})
	})

	ticket, err := api.Tickets.Lookup(context.Background(), "TCK-1", "ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(9), ticket.ID)

	_, err = api.Tickets.Lookup(context.Background(), "TCK-1", "other@example.com")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketDownload(t *testing.T) {
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	data, contentType, err := api.Tickets.Download(session.WithToken(context.Background(), "tok"), 3)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestCountPayloads(t *testing.T) {
	payloads := map[string]string{
		"/api/notifications/count": `{"count":4}`,
		"/api/users/users-count":   `12`,
	}
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payloads[r.URL.Path]))
	})
	ctx := session.WithToken(context.Background(), "tok")

	n, err := api.Notifications.UnreadCount(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = api.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestUsersAllFillsMissingIDs(t *testing.T) {
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user_1":{"email":"a@b.c","role":"admin"}}`))
	})

	users, err := api.Users.All(session.WithToken(context.Background(), "tok"))
	require.NoError(t, err)
	assert.Equal(t, "user_1", users["user_1"].ID)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil, "x"))
	assert.Equal(t, "Station has active voyages",
		UserMessage(&Error{Kind: KindRejected, Message: "Station has active voyages"}, "stations"))
	assert.Equal(t, "Your session has expired. Please sign in again.",
		UserMessage(&Error{Kind: KindNoSession}, "stations"))
	assert.Equal(t, "No ticket was found for this ticket ID and email.", UserMessage(ErrTicketNotFound, "tickets"))
}

func TestUpdateRoleReadsUserBackWhenReplyHasNoUser(t *testing.T) {
	var calls []string
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/users/update-role":
			_, _ = w.Write([]byte(`{"message":"Role updated"}`))
		case "/api/users/all-users":
			_, _ = w.Write([]byte(`{"u1":{"name":"Ayse","email":"a@x.tr","role":"manager"}}`))
		}
	})

	u, err := api.Users.UpdateRole(session.WithToken(context.Background(), "tok"), "u1", "manager")
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: "u1", Name: "Ayse", Email: "a@x.tr", Role: "manager"}, u)
	assert.Equal(t, []string{"PUT /api/users/update-role", "GET /api/users/all-users"}, calls)
}

func TestUpdateRoleFailsWhenUserCannotBeReadBack(t *testing.T) {
	api, _ := newTestAPI(t, session.PolicyReject, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users/all-users" {
			_, _ = w.Write([]byte(`{}`))
		}
	})

	_, err := api.Users.UpdateRole(session.WithToken(context.Background(), "tok"), "u1", "manager")
	assert.Equal(t, KindServer, KindOf(err))
}

func TestErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("ş", 250)
	msg := messageFromBody([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, utf8.RuneCountInString(msg))

	assert.Equal(t, "kısa", messageFromBody([]byte("kısa")))
}
