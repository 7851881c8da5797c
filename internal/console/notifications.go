package console

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// ErrUnknownNotification is returned for ids missing from the local list
var ErrUnknownNotification = errors.New("notification not found")

// NotificationCenter is the notification list of one user. Read, unread and delete
// apply locally first and are rolled back when the request fails.
type NotificationCenter struct {
	api    *backend.NotificationAPI
	userID string
	items  *Collection[int64, model.Notification]
	banner *Banner
	log    *zap.Logger

	loading    atomic.Bool
	markingAll atomic.Bool
}

// NewNotificationCenter creates the center for userID
func NewNotificationCenter(api *backend.NotificationAPI, userID string, banner *Banner, logger *zap.Logger) *NotificationCenter {
	if banner == nil {
		banner = NewBanner(0, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationCenter{
		api:    api,
		userID: userID,
		items:  NewCollection(func(n model.Notification) int64 { return n.ID }),
		banner: banner,
		log:    logger.With(zap.String("screen", "notifications")),
	}
}

// Load fetches every notification of the user
func (c *NotificationCenter) Load(ctx context.Context) error {
	if !c.loading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.loading.Store(false)

	items, err := c.api.All(ctx, c.userID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		c.fail(err)
		return err
	}
	c.items.Reset(items)
	return nil
}

// Items returns the local list
func (c *NotificationCenter) Items() []model.Notification { return c.items.Items() }

// UnreadCount counts unread notifications in the local list
func (c *NotificationCenter) UnreadCount() int {
	n := 0
	for _, item := range c.items.Items() {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// MarkRead marks id as read
func (c *NotificationCenter) MarkRead(ctx context.Context, id int64) error {
	return c.setRead(ctx, id, true)
}

// MarkUnread marks id as unread
func (c *NotificationCenter) MarkUnread(ctx context.Context, id int64) error {
	return c.setRead(ctx, id, false)
}

func (c *NotificationCenter) setRead(ctx context.Context, id int64, read bool) error {
	prev, ok := c.items.Get(id)
	if !ok {
		return ErrUnknownNotification
	}
	if prev.IsRead == read {
		return nil
	}

	next := prev
	next.IsRead = read
	c.items.Replace(next)

	var err error
	if read {
		err = c.api.MarkRead(ctx, id)
	} else {
		err = c.api.MarkUnread(ctx, id)
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.items.Replace(prev)
	c.fail(err)
	return err
}

// Delete removes id
func (c *NotificationCenter) Delete(ctx context.Context, id int64) error {
	prev, ok := c.items.Get(id)
	if !ok {
		return ErrUnknownNotification
	}
	index := c.items.Remove(id)

	err := c.api.Delete(ctx, id)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.items.Insert(index, prev)
	c.fail(err)
	return err
}

// MarkAllRead marks every notification as read
func (c *NotificationCenter) MarkAllRead(ctx context.Context) error {
	if !c.markingAll.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.markingAll.Store(false)

	snapshot := c.items.Items()
	read := make([]model.Notification, len(snapshot))
	for i, n := range snapshot {
		n.IsRead = true
		read[i] = n
	}
	c.items.Reset(read)

	err := c.api.MarkAllRead(ctx, c.userID)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.items.Reset(snapshot)
	c.fail(err)
	return err
}

func (c *NotificationCenter) fail(err error) {
	c.log.Warn("Notification operation failed", zap.Error(err))
	c.banner.Error(backend.UserMessage(err, "notifications"))
}

// CountFunc fetches the unread notification count
type CountFunc func(ctx context.Context) (int, error)

// UnreadCountFunc fetches the unread count of userID from the backend
func UnreadCountFunc(api *backend.NotificationAPI, userID string) CountFunc {
	return func(ctx context.Context) (int, error) {
		return api.UnreadCount(ctx, userID)
	}
}

// Poller keeps the unread count fresh: one fetch on Start, then one per interval until Stop.
type Poller struct {
	fetch    CountFunc
	interval time.Duration
	log      *zap.Logger
	metrics  *metrics.Metrics

	count atomic.Int64
	mu    sync.Mutex
	stop  context.CancelFunc
	done  chan struct{}
}

// NewPoller creates a stopped poller
func NewPoller(fetch CountFunc, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &Poller{fetch: fetch, interval: interval, log: logger, metrics: m}
}

// Start begins polling with ctx. Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop ends polling and waits for an in-flight fetch to return. No fetch starts after Stop.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
}

// Count returns the last fetched unread count
func (p *Poller) Count() int { return int(p.count.Load()) }

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop may race with the tick
			if ctx.Err() != nil {
				return
			}
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	n, err := p.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.Warn("Failed to fetch unread notification count", zap.Error(err))
		return
	}
	p.count.Store(int64(n))
	p.metrics.UnreadNotifications.Set(float64(n))
}
