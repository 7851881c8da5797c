// Package console composes the back-office screens: one generic CRUD screen per entity,
// the notification center with its unread-count poller, and the ticket desk.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/confirm"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/listing"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

var (
	// ErrBusy is returned when the same operation is already in flight
	ErrBusy = errors.New("operation already in progress")
	// ErrUnsupported is returned for operations a screen does not offer
	ErrUnsupported = errors.New("operation not supported on this screen")
	// ErrUnknownFilter is returned for filter names a screen does not define
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrUnknownSort is returned for sort keys a screen does not define
	ErrUnknownSort = errors.New("unknown sort key")
)

// Resource describes how a screen talks to the backend for one entity.
// F is the form type used for create and update.
type Resource[K comparable, T any, F any] struct {
	// Name is the plural used in messages, e.g. "stations"
	Name string
	// Singular is used in success messages, e.g. "Station"
	Singular string
	Key      func(T) K

	List   func(ctx context.Context) ([]T, error)
	Create func(ctx context.Context, form F) (T, error)
	Update func(ctx context.Context, id K, form F) (T, error)
	Delete func(ctx context.Context, id K) error

	// CheckDelete runs before a delete is confirmed and may return a warning
	CheckDelete confirm.Check[K]

	Filters Filters[T]
	Sorters listing.Sorters[T]
}

// Options tune a screen
type Options struct {
	PageSize int
	Banner   *Banner
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Screen is the generic list screen: load, filter, sort, paginate, create, update and
// confirmed delete of one entity type. Every operation has its own busy guard, and a
// cancelled context discards the response instead of writing it into local state.
type Screen[K comparable, T any, F any] struct {
	res       Resource[K, T, F]
	items     *Collection[K, T]
	viewMu    sync.Mutex
	view      *listing.View[T]
	validator *validation.Validator
	deletion  *confirm.Flow[K]
	banner    *Banner
	log       *zap.Logger
	metrics   *metrics.Metrics

	loading    atomic.Bool
	submitting atomic.Bool

	formMu  sync.Mutex
	errs    validation.Errors
	touched validation.Touched
}

// NewScreen creates a screen for res
func NewScreen[K comparable, T any, F any](res Resource[K, T, F], v *validation.Validator, opts Options) *Screen[K, T, F] {
	if opts.Banner == nil {
		opts.Banner = NewBanner(0, nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Discard()
	}

	s := &Screen[K, T, F]{
		res:       res,
		items:     NewCollection(res.Key),
		view:      listing.NewView(res.Sorters, opts.PageSize),
		validator: v,
		banner:    opts.Banner,
		log:       opts.Logger.With(zap.String("screen", res.Name)),
		metrics:   opts.Metrics,
		errs:      validation.Errors{},
		touched:   validation.Touched{},
	}

	var flowOpts []confirm.Option[K]
	if res.CheckDelete != nil {
		flowOpts = append(flowOpts, confirm.WithCheck(res.CheckDelete))
	}
	s.deletion = confirm.New(s.deleteNow, flowOpts...)
	return s
}

// Name returns the plural entity name
func (s *Screen[K, T, F]) Name() string { return s.res.Name }

// Banner returns the screen's banner
func (s *Screen[K, T, F]) Banner() *Banner { return s.banner }

// Load fetches the list and replaces the local copy
func (s *Screen[K, T, F]) Load(ctx context.Context) error {
	if s.res.List == nil {
		return ErrUnsupported
	}
	if !s.loading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.loading.Store(false)

	items, err := s.res.List(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.fail("load", err)
		return err
	}

	s.items.Reset(items)
	s.refresh()
	return nil
}

// Create validates form and creates the entity. The local copy receives the response body.
func (s *Screen[K, T, F]) Create(ctx context.Context, form F) (T, error) {
	var zero T
	if s.res.Create == nil {
		return zero, ErrUnsupported
	}
	if err := s.validate(form); err != nil {
		return zero, err
	}
	if !s.submitting.CompareAndSwap(false, true) {
		return zero, ErrBusy
	}
	defer s.submitting.Store(false)

	created, err := s.res.Create(ctx, form)
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	if err == nil {
		err = s.checkKey("create", created)
	}
	if err != nil {
		s.fail("create", err)
		return zero, err
	}

	s.items.Append(created)
	s.refresh()
	s.banner.Success(s.res.Singular + " created successfully")
	return created, nil
}

// Update validates form and updates the entity with id
func (s *Screen[K, T, F]) Update(ctx context.Context, id K, form F) (T, error) {
	var zero T
	if s.res.Update == nil {
		return zero, ErrUnsupported
	}
	if err := s.validate(form); err != nil {
		return zero, err
	}
	return s.Mutate(ctx, "update", s.res.Singular+" updated successfully", func(ctx context.Context) (T, error) {
		return s.res.Update(ctx, id, form)
	})
}

// Mutate runs a screen-specific operation (cancel a voyage, reply to a complaint)
// whose response replaces the local item with the same id. success is shown on the banner.
func (s *Screen[K, T, F]) Mutate(ctx context.Context, action, success string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !s.submitting.CompareAndSwap(false, true) {
		return zero, ErrBusy
	}
	defer s.submitting.Store(false)

	updated, err := fn(ctx)
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	if err == nil {
		err = s.checkKey(action, updated)
	}
	if err != nil {
		s.fail(action, err)
		return zero, err
	}

	if !s.items.Replace(updated) {
		s.items.Append(updated)
	}
	s.refresh()
	s.banner.Success(success)
	return updated, nil
}

// RequestDelete opens the delete confirmation for id, running the precondition check if any
func (s *Screen[K, T, F]) RequestDelete(ctx context.Context, id K) error {
	if s.res.Delete == nil {
		return ErrUnsupported
	}
	err := s.deletion.Open(ctx, id)
	if err != nil && !errors.Is(err, confirm.ErrBusy) && !errors.Is(err, confirm.ErrCancelled) {
		s.fail("check", err)
	}
	return err
}

// ConfirmDelete deletes the pending target. The item leaves local state only after a 2xx.
func (s *Screen[K, T, F]) ConfirmDelete(ctx context.Context) error {
	return s.deletion.Confirm(ctx)
}

// CancelDelete closes the delete confirmation
func (s *Screen[K, T, F]) CancelDelete() error {
	return s.deletion.Cancel()
}

// DeleteState returns the state of the delete confirmation
func (s *Screen[K, T, F]) DeleteState() confirm.State { return s.deletion.State() }

// DeleteWarning returns the precondition warning of the pending delete
func (s *Screen[K, T, F]) DeleteWarning() string { return s.deletion.Warning() }

// PendingDelete returns the id awaiting confirmation
func (s *Screen[K, T, F]) PendingDelete() (K, bool) { return s.deletion.Target() }

func (s *Screen[K, T, F]) deleteNow(ctx context.Context, id K) error {
	if err := s.res.Delete(ctx, id); err != nil {
		if ctx.Err() == nil {
			s.fail("delete", err)
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.items.Remove(id)
	s.refresh()
	s.banner.Success(s.res.Singular + " deleted successfully")
	return nil
}

// Get returns the local copy of id
func (s *Screen[K, T, F]) Get(id K) (T, bool) { return s.items.Get(id) }

// Items returns the unfiltered local copy
func (s *Screen[K, T, F]) Items() []T { return s.items.Items() }

// SetFilter sets the named filter from its textual value; an empty value removes it
func (s *Screen[K, T, F]) SetFilter(name, value string) error {
	build, ok := s.res.Filters[name]
	if !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownFilter, name, s.res.Name)
	}
	var pred listing.Predicate[T]
	if value != "" {
		p, err := build(value)
		if err != nil {
			return err
		}
		pred = p
	}
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view.SetFilter(name, pred)
	return nil
}

// ClearFilters removes every filter
func (s *Screen[K, T, F]) ClearFilters() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view.ClearFilters()
}

// SetSort applies "key[:dir]"; an empty string restores source order
func (s *Screen[K, T, F]) SetSort(spec string) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if !s.view.SetSort(listing.ParseSort(spec)) {
		return fmt.Errorf("%w %q for %s", ErrUnknownSort, spec, s.res.Name)
	}
	return nil
}

// SetPage selects a page of the derived list
func (s *Screen[K, T, F]) SetPage(page int) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view.SetPage(page)
}

// Page returns the current page of the filtered and sorted list
func (s *Screen[K, T, F]) Page() listing.Page[T] {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.view.Page()
}

// Touch marks a form field as touched so its error renders
func (s *Screen[K, T, F]) Touch(field string) {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	s.touched.Touch(field)
}

// FormErrors returns the messages of the last validated form for touched fields
func (s *Screen[K, T, F]) FormErrors() validation.Errors {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	return s.touched.Visible(s.errs)
}

func (s *Screen[K, T, F]) validate(form F) error {
	errs := s.validator.ValidateForm(form)

	s.formMu.Lock()
	s.errs = errs
	// A submit attempt shows every message
	s.touched.TouchAll(form)
	s.formMu.Unlock()

	if errs.Empty() {
		return nil
	}
	s.metrics.ValidationFailures.WithLabelValues(s.res.Name).Inc()
	return errs
}

// checkKey rejects a 2xx reply that did not carry the entity
func (s *Screen[K, T, F]) checkKey(action string, item T) error {
	var zero K
	if s.res.Key(item) != zero {
		return nil
	}
	return &backend.Error{Kind: backend.KindServer, Op: s.res.Name + " " + action, Message: "malformed response"}
}

func (s *Screen[K, T, F]) refresh() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view.SetSource(s.items.Items())
}

func (s *Screen[K, T, F]) fail(action string, err error) {
	s.log.Warn("Screen operation failed", zap.String("action", action), zap.Error(err))
	s.banner.Error(backend.UserMessage(err, s.res.Name))
}
