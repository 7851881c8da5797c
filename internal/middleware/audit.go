package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/events"
)

const auditTimeout = 15 * time.Second

// isAuditedRequest reports whether a finished request changed state
func isAuditedRequest(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	// Lookups are POSTs that change nothing
	if strings.HasSuffix(c.FullPath(), "/lookup") {
		return false
	}
	return c.Writer.Status() < 400
}

// entityType names the resource a route acts on, e.g. "stations"
func entityType(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i, p := range parts {
		if p == "api" || p == "admin" || p == "manager" {
			continue
		}
		if strings.HasPrefix(p, ":") && i > 0 {
			return parts[i-1]
		}
		return p
	}
	return ""
}

// Audit publishes an audit event for every successful mutation. Publishing
// happens off the request path; inflight, when not nil, tracks publishes
// that have not finished so shutdown can wait for them.
func Audit(auditor events.Auditor, inflight *sync.WaitGroup) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !isAuditedRequest(c) {
			return
		}

		ev := events.AuditEvent{
			RequestID:  c.GetHeader("X-Request-ID"),
			Method:     c.Request.Method,
			Route:      c.FullPath(),
			Path:       c.Request.URL.Path,
			EntityType: entityType(c.FullPath()),
			Status:     c.Writer.Status(),
			OccurredAt: time.Now().UTC(),
		}
		if claims, ok := ClaimsFrom(c); ok {
			ev.Subject = claims.Subject
			ev.Role = claims.Role
		}

		if inflight != nil {
			inflight.Add(1)
		}
		go func() {
			if inflight != nil {
				defer inflight.Done()
			}
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			defer cancel()
			auditor.Audit(ctx, ev)
		}()
	}
}

// WaitAudits blocks until every tracked publish finished or ctx is done
func WaitAudits(ctx context.Context, inflight *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
