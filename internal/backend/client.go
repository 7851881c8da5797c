package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
)

// Request describes one call against the ferry backend
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Auth marks privileged routes that need the session token
	Auth bool
}

// Client is the single request helper every screen goes through
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     session.Policy
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new ferry backend client
func NewClient(baseURL string, timeout time.Duration, policy session.Policy, logger *zap.Logger, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.Discard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = session.PolicyReject
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy:  policy,
		logger:  logger,
		metrics: m,
	}
}

// Do performs the request and decodes a 2xx JSON body into out (which may be nil)
func (c *Client) Do(ctx context.Context, r Request, out interface{}) error {
	body, _, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Failed to decode backend response",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Error(err))
		return &Error{Kind: KindServer, Op: op(r), Message: "malformed response", Err: err}
	}
	return nil
}

// Download performs the request and returns the raw body with its content type
func (c *Client) Download(ctx context.Context, r Request) ([]byte, string, error) {
	return c.send(ctx, r)
}

func (c *Client) send(ctx context.Context, r Request) ([]byte, string, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	c.metrics.BackendLatency.WithLabelValues(r.Method).Observe(latency.Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(r.Method, "error").Inc()
		c.logger.Error("Backend request failed",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Duration("latency", latency),
			zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, "", &Error{Kind: KindTransport, Op: op(r), Err: err}
	}
	defer resp.Body.Close()

	c.metrics.BackendRequests.WithLabelValues(r.Method, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{Kind: KindTransport, Op: op(r), Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Op:      op(r),
			Message: messageFromBody(body),
		}
		c.logger.Warn("Backend returned non-2xx status",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", e.Message))
		return nil, "", e
	}

	c.logger.Debug("Backend request completed",
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency))

	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode body: %w", op(r), err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op(r), err)
	}

	// Add headers
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if r.Auth {
		header, err := session.AuthorizationHeader(ctx, c.policy)
		if err != nil {
			if errors.Is(err, session.ErrNoToken) {
				return nil, &Error{Kind: KindNoSession, Op: op(r), Err: err}
			}
			return nil, err
		}
		if header != "" {
			req.Header.Set("Authorization", header)
		}
	}

	return req, nil
}

func op(r Request) string {
	return r.Method + " " + r.Path
}

// pathf builds a path with escaped segments
func pathf(format string, args ...interface{}) string {
	escaped := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = url.PathEscape(v)
		default:
			escaped[i] = v
		}
	}
	return fmt.Sprintf(format, escaped...)
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values, auth bool) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Auth: auth}, &out)
	return out, err
}

func mutate[T any](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: method, Path: path, Body: body, Auth: true}, &out)
	return out, err
}

func remove(ctx context.Context, c *Client, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Auth: true}, nil)
}

// API bundles the typed resource clients
type API struct {
	Stations      *StationAPI
	Voyages       *VoyageAPI
	Tickets       *TicketAPI
	Announcements *AnnouncementAPI
	Notifications *NotificationAPI
	Complaints    *ComplaintAPI
	Users         *UserAPI
	ActivityLogs  *ActivityLogAPI
	Seats         *SeatAPI
	Currency      *CurrencyAPI
}

// NewAPI wires every resource client to c
func NewAPI(c *Client) *API {
	return &API{
		Stations:      &StationAPI{c: c},
		Voyages:       &VoyageAPI{c: c},
		Tickets:       &TicketAPI{c: c},
		Announcements: &AnnouncementAPI{c: c},
		Notifications: &NotificationAPI{c: c},
		Complaints:    &ComplaintAPI{c: c},
		Users:         &UserAPI{c: c},
		ActivityLogs:  &ActivityLogAPI{c: c},
		Seats:         &SeatAPI{c: c},
		Currency:      &CurrencyAPI{c: c},
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
