package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// DefaultCookieName is the cookie the identity provider stores the session token in
const DefaultCookieName = "__session"

// Policy decides what a privileged request does when no token is available
type Policy string

const (
	// PolicyReject fails privileged requests locally without a network call
	PolicyReject Policy = "reject"
	// PolicyBearerNull sends "Authorization: Bearer null" like the legacy front end
	PolicyBearerNull Policy = "bearer-null"
	// PolicyOmit sends the request without an Authorization header
	PolicyOmit Policy = "omit"
)

// ErrNoToken is returned when a token is required but none is present
var ErrNoToken = errors.New("session token missing")

// FromRequest returns the session token carried by the request cookie.
// The token is read on every call; nothing is cached.
func FromRequest(r *http.Request, cookieName string) (string, bool) {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// FromCookieHeader extracts the token from a raw Cookie header value. A value
// without any "=" is taken to be the token itself.
func FromCookieHeader(header, cookieName string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	if !strings.Contains(header, "=") {
		return header, true
	}
	r := &http.Request{Header: http.Header{"Cookie": []string{header}}}
	return FromRequest(r, cookieName)
}

type tokenKey struct{}

// WithToken returns a context carrying the session token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token threaded through ctx
func TokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}

// AuthorizationHeader resolves the Authorization header value for a privileged
// request. An empty value with a nil error means "send no header".
func AuthorizationHeader(ctx context.Context, policy Policy) (string, error) {
	if tok, ok := TokenFrom(ctx); ok {
		return "Bearer " + tok, nil
	}
	switch policy {
	case PolicyBearerNull:
		return "Bearer null", nil
	case PolicyOmit:
		return "", nil
	default:
		return "", ErrNoToken
	}
}

// Claims holds the parts of the session token the console cares about
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// HasRole reports whether the claims grant any of roles. The super role passes every gate.
func (c Claims) HasRole(roles ...string) bool {
	if c.Role == model.RoleSuper {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// ParseClaims decodes the token payload without verifying its signature.
// Verification belongs to the identity provider and the backend; the result is
// only used to decide which console features to offer.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims := Claims{
		Subject: stringClaim(mc, "sub"),
		Email:   stringClaim(mc, "email"),
		Role:    stringClaim(mc, "role"),
	}

	// Identity providers usually nest custom claims under metadata
	if claims.Role == "" {
		for _, key := range []string{"metadata", "public_metadata", "publicMetadata"} {
			if nested, ok := mc[key].(map[string]interface{}); ok {
				if role, ok := nested["role"].(string); ok && role != "" {
					claims.Role = role
					break
				}
			}
		}
	}

	// If role is empty, default to "user"
	if claims.Role == "" {
		claims.Role = model.RoleUser
	}

	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
