// Package booking runs the voyage search of the booking flow: outbound and return legs
// are searched together and every found voyage is checked for free seats.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// Leg of a trip
type Leg string

const (
	Outbound Leg = "outbound"
	Return   Leg = "return"
)

// maxSeatLookups bounds the concurrent sold-seat requests of one search
const maxSeatLookups = 8

var (
	// ErrNotEnoughSeats matches a LegError when no voyage of a leg can seat the passengers
	ErrNotEnoughSeats = errors.New("not enough seats")
	// ErrNoVoyages matches a LegError when a leg has no upcoming voyage at all
	ErrNoVoyages = errors.New("no voyages found")
)

// LegError reports which leg made the search fail
type LegError struct {
	Leg        Leg
	Passengers int
	Err        error
}

func (e *LegError) Error() string {
	if errors.Is(e.Err, ErrNotEnoughSeats) {
		return fmt.Sprintf("not enough seats available on the %s voyages for %d passengers", e.Leg, e.Passengers)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Leg)
}

func (e *LegError) Unwrap() error { return e.Err }

// Option is a voyage with its free seats per class
type Option struct {
	Voyage    model.Voyage   `json:"voyage"`
	Available map[string]int `json:"available"`
	// Classes lists the seat classes that can seat every passenger
	Classes []string `json:"classes"`
}

// Bookable reports whether any class can seat the passengers
func (o Option) Bookable() bool { return len(o.Classes) > 0 }

// Result holds the options of both legs; Return is empty for one-way trips
type Result struct {
	Outbound []Option `json:"outbound"`
	Return   []Option `json:"return,omitempty"`
}

// Searcher runs booking searches against the backend
type Searcher struct {
	api       *backend.API
	validator *validation.Validator
	now       func() time.Time
	log       *zap.Logger
}

// NewSearcher creates a searcher; now and logger may be nil
func NewSearcher(api *backend.API, v *validation.Validator, now func() time.Time, logger *zap.Logger) *Searcher {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{api: api, validator: v, now: now, log: logger}
}

// Search validates form, searches both legs concurrently and checks seats on every voyage found.
// A leg with voyages but no class able to seat every passenger fails with ErrNotEnoughSeats.
func (s *Searcher) Search(ctx context.Context, form validation.SearchForm) (Result, error) {
	if err := s.validator.Check(form); err != nil {
		return Result{}, err
	}

	var outbound, inbound []model.Voyage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outbound, err = s.api.Voyages.Search(gctx, backend.SearchParams{
			FromStationID: form.FromStationID,
			ToStationID:   form.ToStationID,
			DepartureDate: form.DepartureDate,
		})
		return err
	})
	if form.RoundTrip {
		g.Go(func() error {
			var err error
			inbound, err = s.api.Voyages.Search(gctx, backend.SearchParams{
				FromStationID: form.ToStationID,
				ToStationID:   form.FromStationID,
				DepartureDate: form.ReturnDate,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	now := s.now()
	outbound = upcoming(outbound, now)
	inbound = upcoming(inbound, now)

	sold, err := s.soldSeats(ctx, append(append([]model.Voyage{}, outbound...), inbound...))
	if err != nil {
		return Result{}, err
	}

	res := Result{Outbound: options(outbound, sold, form.Passengers)}
	if err := checkLeg(Outbound, res.Outbound, form.Passengers); err != nil {
		return res, err
	}
	if form.RoundTrip {
		res.Return = options(inbound, sold, form.Passengers)
		if err := checkLeg(Return, res.Return, form.Passengers); err != nil {
			return res, err
		}
	}

	s.log.Debug("Booking search completed",
		zap.Int64("from", form.FromStationID),
		zap.Int64("to", form.ToStationID),
		zap.Int("outbound", len(res.Outbound)),
		zap.Int("return", len(res.Return)))
	return res, nil
}

// soldSeats fetches the sold counts of every voyage concurrently
func (s *Searcher) soldSeats(ctx context.Context, voyages []model.Voyage) (map[int64]model.SeatsSold, error) {
	results := make([]model.SeatsSold, len(voyages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSeatLookups)
	for i, v := range voyages {
		i, id := i, v.ID
		g.Go(func() error {
			sold, err := s.api.Seats.SoldByVoyage(gctx, id)
			if backend.IsNotFound(err) {
				// Nothing sold yet
				sold, err = model.SeatsSold{VoyageID: id}, nil
			}
			results[i] = sold
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int64]model.SeatsSold, len(voyages))
	for i, v := range voyages {
		out[v.ID] = results[i]
	}
	return out, nil
}

func upcoming(voyages []model.Voyage, now time.Time) []model.Voyage {
	out := make([]model.Voyage, 0, len(voyages))
	for _, v := range voyages {
		if v.DerivedStatus(now) == model.VoyageActive {
			out = append(out, v)
		}
	}
	return out
}

func options(voyages []model.Voyage, sold map[int64]model.SeatsSold, passengers int) []Option {
	out := make([]Option, 0, len(voyages))
	for _, v := range voyages {
		opt := Option{Voyage: v, Available: map[string]int{}}
		for _, class := range model.SeatClasses {
			n := v.Available(sold[v.ID], class)
			opt.Available[class] = n
			if n >= passengers {
				opt.Classes = append(opt.Classes, class)
			}
		}
		out = append(out, opt)
	}
	return out
}

func checkLeg(leg Leg, opts []Option, passengers int) error {
	if len(opts) == 0 {
		return &LegError{Leg: leg, Passengers: passengers, Err: ErrNoVoyages}
	}
	for _, o := range opts {
		if o.Bookable() {
			return nil
		}
	}
	return &LegError{Leg: leg, Passengers: passengers, Err: ErrNotEnoughSeats}
}

// Message renders a search error for display
func Message(err error) string {
	var le *LegError
	if errors.As(err, &le) {
		if errors.Is(err, ErrNotEnoughSeats) {
			return fmt.Sprintf("Not enough seats available on the %s voyage for %d passengers.", le.Leg, le.Passengers)
		}
		return fmt.Sprintf("No %s voyages found for the selected date.", le.Leg)
	}
	return backend.UserMessage(err, "voyages")
}
