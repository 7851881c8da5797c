package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// ErrAlreadyDeparted is returned when cancelling a ticket whose voyage has left
var ErrAlreadyDeparted = errors.New("this voyage has already departed, the ticket can no longer be cancelled")

// TicketDesk looks up and cancels tickets
type TicketDesk struct {
	api       *backend.API
	validator *validation.Validator
	now       func() time.Time
}

// NewTicketDesk creates a desk; now may be nil
func NewTicketDesk(api *backend.API, v *validation.Validator, now func() time.Time) *TicketDesk {
	if now == nil {
		now = time.Now
	}
	return &TicketDesk{api: api, validator: v, now: now}
}

// Lookup finds a ticket by its public ticket id and the buyer's email
func (d *TicketDesk) Lookup(ctx context.Context, form validation.TicketLookupForm) (model.Ticket, error) {
	if err := d.validator.Check(form); err != nil {
		return model.Ticket{}, err
	}
	return d.api.Tickets.Lookup(ctx, form.TicketID, form.Email)
}

// Cancel deletes ticket id unless its voyage has already departed
func (d *TicketDesk) Cancel(ctx context.Context, id int64) error {
	ticket, err := d.api.Tickets.Get(ctx, id)
	if backend.IsNotFound(err) {
		return backend.ErrTicketNotFound
	}
	if err != nil {
		return err
	}

	voyage, err := d.api.Voyages.Get(ctx, ticket.VoyageID)
	if err != nil {
		return err
	}
	now := d.now()
	dep, err := voyage.Departure(now.Location())
	if err != nil {
		return fmt.Errorf("cancel ticket %d: %w", id, err)
	}
	if !dep.After(now) {
		return ErrAlreadyDeparted
	}

	return d.api.Tickets.Delete(ctx, id)
}

// Message renders a ticket desk error for display
func (d *TicketDesk) Message(err error) string {
	if errors.Is(err, ErrAlreadyDeparted) {
		return "This voyage has already departed. The ticket can no longer be cancelled."
	}
	return backend.UserMessage(err, "ticket")
}
