package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// NotificationAPI talks to /notifications
type NotificationAPI struct {
	c *Client
}

func userQuery(userID string) url.Values {
	if userID == "" {
		return nil
	}
	q := url.Values{}
	q.Set("userId", userID)
	return q
}

// All returns every notification of a user, newest first
func (a *NotificationAPI) All(ctx context.Context, userID string) ([]model.Notification, error) {
	return get[[]model.Notification](ctx, a.c, "/notifications/all", userQuery(userID), true)
}

// Unread returns the unread notifications of a user
func (a *NotificationAPI) Unread(ctx context.Context, userID string) ([]model.Notification, error) {
	return get[[]model.Notification](ctx, a.c, "/notifications/unread", userQuery(userID), true)
}

// UnreadCount returns the unread notification count of a user
func (a *NotificationAPI) UnreadCount(ctx context.Context, userID string) (int, error) {
	var raw interface{}
	err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "/notifications/count", Query: userQuery(userID), Auth: true}, &raw)
	if err != nil {
		return 0, err
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case map[string]interface{}:
		for _, key := range []string{"count", "unreadCount"} {
			if n, ok := v[key].(float64); ok {
				return int(n), nil
			}
		}
	}
	return 0, &Error{Kind: KindServer, Op: "GET /notifications/count", Message: "unexpected count payload"}
}

// MarkRead marks one notification as read
func (a *NotificationAPI) MarkRead(ctx context.Context, id int64) error {
	return a.c.Do(ctx, Request{Method: http.MethodPut, Path: pathf("/notifications/%d/read", id), Auth: true}, nil)
}

// MarkUnread marks one notification as unread
func (a *NotificationAPI) MarkUnread(ctx context.Context, id int64) error {
	return a.c.Do(ctx, Request{Method: http.MethodPut, Path: pathf("/notifications/%d/unread", id), Auth: true}, nil)
}

// MarkAllRead marks every notification of a user as read
func (a *NotificationAPI) MarkAllRead(ctx context.Context, userID string) error {
	return a.c.Do(ctx, Request{Method: http.MethodPut, Path: "/notifications/read-all", Query: userQuery(userID), Auth: true}, nil)
}

// Delete removes a notification
func (a *NotificationAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/notifications/%d", id))
}

// Broadcast sends a notification to every user
func (a *NotificationAPI) Broadcast(ctx context.Context, b model.Broadcast) error {
	return a.c.Do(ctx, Request{Method: http.MethodPost, Path: "/notifications/broadcast", Body: b, Auth: true}, nil)
}

// ComplaintAPI talks to /complaints
type ComplaintAPI struct {
	c *Client
}

// List returns every complaint
func (a *ComplaintAPI) List(ctx context.Context) ([]model.Complaint, error) {
	return get[[]model.Complaint](ctx, a.c, "/complaints", nil, true)
}

// Active returns complaints still waiting for a reply
func (a *ComplaintAPI) Active(ctx context.Context) ([]model.Complaint, error) {
	return get[[]model.Complaint](ctx, a.c, "/complaints/status/active", nil, true)
}

// Reply stores a manager reply and marks the complaint solved
func (a *ComplaintAPI) Reply(ctx context.Context, id int64, reply string) (model.Complaint, error) {
	body := struct {
		Reply  string `json:"reply"`
		Status string `json:"status"`
	}{Reply: reply, Status: model.ComplaintSolved}
	return mutate[model.Complaint](ctx, a.c, http.MethodPut, pathf("/complaints/%d", id), body)
}

// Delete removes a complaint
func (a *ComplaintAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/complaints/%d", id))
}

// UserAPI talks to /users
type UserAPI struct {
	c *Client
}

// All returns every user keyed by id
func (a *UserAPI) All(ctx context.Context) (map[string]model.User, error) {
	users, err := get[map[string]model.User](ctx, a.c, "/users/all-users", nil, true)
	if err != nil {
		return nil, err
	}
	for id, u := range users {
		if u.ID == "" {
			u.ID = id
			users[id] = u
		}
	}
	return users, nil
}

// UpdateRole changes the role of a user and returns the updated user. When the reply
// carries no user, the user is read back from the backend.
func (a *UserAPI) UpdateRole(ctx context.Context, userID, role string) (model.User, error) {
	body := struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}{UserID: userID, Role: role}
	u, err := mutate[model.User](ctx, a.c, http.MethodPut, "/users/update-role", body)
	if err != nil {
		return model.User{}, err
	}
	if u.ID != "" {
		return u, nil
	}

	users, err := a.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	u, ok := users[userID]
	if !ok {
		return model.User{}, &Error{Kind: KindServer, Op: "PUT /users/update-role", Message: "malformed response"}
	}
	return u, nil
}

// Delete removes a user
func (a *UserAPI) Delete(ctx context.Context, userID string) error {
	return remove(ctx, a.c, pathf("/users/delete-user/%s", userID))
}

// Count returns the number of registered users
func (a *UserAPI) Count(ctx context.Context) (int, error) {
	return count(ctx, a.c, "/users/users-count")
}

// Preferences returns the session user's preferences
func (a *UserAPI) Preferences(ctx context.Context) (model.UserPreferences, error) {
	return get[model.UserPreferences](ctx, a.c, "/users/preferences", nil, true)
}

// UpdatePreferences stores the session user's preferences
func (a *UserAPI) UpdatePreferences(ctx context.Context, p model.UserPreferences) (model.UserPreferences, error) {
	return mutate[model.UserPreferences](ctx, a.c, http.MethodPut, "/users/preferences", p)
}

// ActivityLogAPI talks to /activity-logs
type ActivityLogAPI struct {
	c *Client
}

// List returns every activity log entry
func (a *ActivityLogAPI) List(ctx context.Context) ([]model.ActivityLog, error) {
	return get[[]model.ActivityLog](ctx, a.c, "/activity-logs", nil, true)
}

// Get returns one activity log entry
func (a *ActivityLogAPI) Get(ctx context.Context, id int64) (model.ActivityLog, error) {
	return get[model.ActivityLog](ctx, a.c, pathf("/activity-logs/%d", id), nil, true)
}

// Delete removes an activity log entry
func (a *ActivityLogAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/activity-logs/%d", id))
}
