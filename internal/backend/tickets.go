package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// TicketAPI talks to /tickets. Tickets are created by the booking flow, never here.
type TicketAPI struct {
	c *Client
}

// List returns every ticket (admin view)
func (a *TicketAPI) List(ctx context.Context) ([]model.Ticket, error) {
	return get[[]model.Ticket](ctx, a.c, "/tickets", nil, true)
}

// ByUser returns the tickets of the session user
func (a *TicketAPI) ByUser(ctx context.Context) ([]model.Ticket, error) {
	return get[[]model.Ticket](ctx, a.c, "/tickets/by-user", nil, true)
}

// Lookup finds a ticket by its public ticket ID and the buyer's email.
// A missing ticket or an email mismatch both yield ErrTicketNotFound.
func (a *TicketAPI) Lookup(ctx context.Context, ticketID, email string) (model.Ticket, error) {
	q := url.Values{}
	q.Set("email", email)
	t, err := get[model.Ticket](ctx, a.c, pathf("/tickets/ticketID/%s", ticketID), q, false)
	if err != nil {
		if IsNotFound(err) {
			return model.Ticket{}, ErrTicketNotFound
		}
		return model.Ticket{}, err
	}
	if t.ID == 0 && t.TicketID == "" {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, nil
}

// Get returns one ticket
func (a *TicketAPI) Get(ctx context.Context, id int64) (model.Ticket, error) {
	return get[model.Ticket](ctx, a.c, pathf("/tickets/%d", id), nil, true)
}

// Update replaces a ticket
func (a *TicketAPI) Update(ctx context.Context, id int64, t model.Ticket) (model.Ticket, error) {
	return mutate[model.Ticket](ctx, a.c, http.MethodPut, pathf("/tickets/%d", id), t)
}

// Delete cancels a ticket
func (a *TicketAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/tickets/%d", id))
}

// Download returns the ticket PDF
func (a *TicketAPI) Download(ctx context.Context, id int64) ([]byte, string, error) {
	return a.c.Download(ctx, Request{Method: http.MethodGet, Path: pathf("/tickets/%d/download", id), Auth: true})
}

// Count returns the number of sold tickets
func (a *TicketAPI) Count(ctx context.Context) (int, error) {
	return count(ctx, a.c, "/tickets/count")
}

// AnnouncementAPI talks to /announcements
type AnnouncementAPI struct {
	c *Client
}

// List returns every announcement. Public route.
func (a *AnnouncementAPI) List(ctx context.Context) ([]model.Announcement, error) {
	return get[[]model.Announcement](ctx, a.c, "/announcements", nil, false)
}

// Get returns one announcement. Public route.
func (a *AnnouncementAPI) Get(ctx context.Context, id int64) (model.Announcement, error) {
	return get[model.Announcement](ctx, a.c, pathf("/announcements/%d", id), nil, false)
}

// Create publishes an announcement
func (a *AnnouncementAPI) Create(ctx context.Context, an model.Announcement) (model.Announcement, error) {
	return mutate[model.Announcement](ctx, a.c, http.MethodPost, "/announcements", an)
}

// Update replaces an announcement
func (a *AnnouncementAPI) Update(ctx context.Context, id int64, an model.Announcement) (model.Announcement, error) {
	return mutate[model.Announcement](ctx, a.c, http.MethodPut, pathf("/announcements/%d", id), an)
}

// Delete removes an announcement
func (a *AnnouncementAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.c, pathf("/announcements/%d", id))
}

// CurrencyAPI talks to /currency
type CurrencyAPI struct {
	c *Client
}

// Convert converts amount between two currency codes. Public route.
func (a *CurrencyAPI) Convert(ctx context.Context, amount float64, from, to string) (model.Conversion, error) {
	q := url.Values{}
	q.Set("amount", formatAmount(amount))
	q.Set("from", from)
	q.Set("to", to)
	conv, err := get[model.Conversion](ctx, a.c, "/currency/convert", q, false)
	if err != nil {
		return model.Conversion{}, err
	}
	if conv.From == "" {
		conv.Amount, conv.From, conv.To = amount, from, to
	}
	return conv, nil
}

// count decodes either a bare number or {"count": n}
func count(ctx context.Context, c *Client, path string) (int, error) {
	var raw interface{}
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Auth: true}, &raw); err != nil {
		return 0, err
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case map[string]interface{}:
		if n, ok := v["count"].(float64); ok {
			return int(n), nil
		}
	}
	return 0, &Error{Kind: KindServer, Op: "GET " + path, Message: "unexpected count payload"}
}
