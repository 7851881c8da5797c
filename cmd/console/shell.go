package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/confirm"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

var errQuit = errors.New("quit")

// screen is the command surface shared by every entity screen
type screen interface {
	Name() string
	Banner() *console.Banner
	Load(ctx context.Context) error
	SetFilter(name, value string) error
	ClearFilters()
	SetSort(spec string) error
	SetPage(page int)
	CancelDelete() error
	DeleteWarning() string

	render(w io.Writer)
	create(ctx context.Context, raw string) error
	update(ctx context.Context, id, raw string) error
	requestDelete(ctx context.Context, id string) error
	confirmDelete(ctx context.Context) error
}

// screenCommands adapts a typed console screen to the shell
type screenCommands[K comparable, T any, F any] struct {
	*console.Screen[K, T, F]
	parseKey func(string) (K, error)
	row      func(T) string
}

func (s *screenCommands[K, T, F]) render(w io.Writer) {
	page := s.Page()
	if len(page.Data) == 0 {
		fmt.Fprintf(w, "no %s\n", s.Name())
	}
	for _, item := range page.Data {
		fmt.Fprintln(w, s.row(item))
	}
	p := page.Pagination
	fmt.Fprintf(w, "page %d/%d, %d %s\n", p.CurrentPage, p.TotalPages, p.TotalItems, s.Name())
}

func (s *screenCommands[K, T, F]) create(ctx context.Context, raw string) error {
	var form F
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	_, err := s.Create(ctx, form)
	return err
}

func (s *screenCommands[K, T, F]) update(ctx context.Context, id, raw string) error {
	key, err := s.parseKey(id)
	if err != nil {
		return err
	}
	var form F
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	_, err = s.Update(ctx, key, form)
	return err
}

func (s *screenCommands[K, T, F]) requestDelete(ctx context.Context, id string) error {
	key, err := s.parseKey(id)
	if err != nil {
		return err
	}
	return s.RequestDelete(ctx, key)
}

func (s *screenCommands[K, T, F]) confirmDelete(ctx context.Context) error {
	return s.ConfirmDelete(ctx)
}

func int64Key(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func stringKey(s string) (string, error) {
	if s == "" {
		return "", errors.New("missing id")
	}
	return s, nil
}

// Shell runs console commands for one signed-in user
type Shell struct {
	api     *backend.API
	screens map[string]screen
	// current receives confirm and cancel
	current screen

	voyages       *console.Screen[int64, model.Voyage, validation.VoyageForm]
	notifications *console.NotificationCenter
	poller        *console.Poller
	desk          *console.TicketDesk
	banner        *console.Banner
	timeout       time.Duration
	out           io.Writer
}

// ShellOptions configures a shell
type ShellOptions struct {
	Claims        session.Claims
	Validator     *validation.Validator
	ScreenOptions console.Options
	PollInterval  time.Duration
	Timeout       time.Duration
	Now           func() time.Time
	Out           io.Writer
}

// NewShell builds the screens the role of claims may use
func NewShell(api *backend.API, opts ShellOptions) *Shell {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ScreenOptions.Banner == nil {
		opts.ScreenOptions.Banner = console.NewBanner(5*time.Second, opts.Now)
	}
	banner := opts.ScreenOptions.Banner

	sh := &Shell{
		api:     api,
		screens: map[string]screen{},
		desk:    console.NewTicketDesk(api, opts.Validator, opts.Now),
		banner:  banner,
		timeout: opts.Timeout,
		out:     opts.Out,
	}

	if opts.Claims.HasRole(model.RoleAdmin) {
		sh.voyages = console.NewScreen(console.VoyageResource(api, opts.Now), opts.Validator, opts.ScreenOptions)
		sh.screens["stations"] = &screenCommands[int64, model.Station, validation.StationForm]{
			Screen:   console.NewScreen(console.StationResource(api, opts.Now), opts.Validator, opts.ScreenOptions),
			parseKey: int64Key,
			row:      stationRow,
		}
		sh.screens["voyages"] = &screenCommands[int64, model.Voyage, validation.VoyageForm]{
			Screen:   sh.voyages,
			parseKey: int64Key,
			row:      voyageRow(opts.Now),
		}
		sh.screens["announcements"] = &screenCommands[int64, model.Announcement, validation.AnnouncementForm]{
			Screen:   console.NewScreen(console.AnnouncementResource(api), opts.Validator, opts.ScreenOptions),
			parseKey: int64Key,
			row:      announcementRow,
		}
		sh.screens["logs"] = &screenCommands[int64, model.ActivityLog, console.NoForm]{
			Screen:   console.NewScreen(console.ActivityLogResource(api), opts.Validator, opts.ScreenOptions),
			parseKey: int64Key,
			row:      activityLogRow,
		}
	}
	if opts.Claims.HasRole(model.RoleAdmin, model.RoleManager) {
		sh.screens["complaints"] = &screenCommands[int64, model.Complaint, validation.ComplaintReplyForm]{
			Screen:   console.NewScreen(console.ComplaintResource(api), opts.Validator, opts.ScreenOptions),
			parseKey: int64Key,
			row:      complaintRow,
		}
		sh.screens["users"] = &screenCommands[string, model.User, validation.RoleForm]{
			Screen:   console.NewScreen(console.UserResource(api), opts.Validator, opts.ScreenOptions),
			parseKey: stringKey,
			row:      userRow,
		}
	}

	if opts.Claims.Subject != "" {
		sh.notifications = console.NewNotificationCenter(api.Notifications, opts.Claims.Subject, banner, opts.ScreenOptions.Logger)
		sh.poller = console.NewPoller(
			console.UnreadCountFunc(api.Notifications, opts.Claims.Subject),
			opts.PollInterval,
			opts.ScreenOptions.Logger,
			opts.ScreenOptions.Metrics,
		)
	}
	return sh
}

// Run reads commands from in until EOF or quit. The unread poller runs meanwhile.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	if sh.poller != nil {
		sh.poller.Start(ctx)
		defer sh.poller.Stop()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	sh.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := sh.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(sh.out, "error:", sh.message(err))
		}
		sh.showBanner()
		sh.prompt()
	}
	return scanner.Err()
}

func (sh *Shell) prompt() {
	if sh.poller != nil {
		fmt.Fprintf(sh.out, "[%d] ferry> ", sh.poller.Count())
		return
	}
	fmt.Fprint(sh.out, "ferry> ")
}

func (sh *Shell) showBanner() {
	if msg, ok := sh.banner.Current(); ok {
		fmt.Fprintf(sh.out, "%s: %s\n", msg.Level, msg.Text)
		sh.banner.Dismiss()
	}
}

// message renders err for the user
func (sh *Shell) message(err error) string {
	if errs, ok := validation.AsErrors(err); ok {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + errs[k]
		}
		return strings.Join(parts, "; ")
	}
	if errors.Is(err, console.ErrAlreadyDeparted) || errors.Is(err, backend.ErrTicketNotFound) {
		return sh.desk.Message(err)
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return backend.UserMessage(err, "request")
	}
	return err.Error()
}

// Exec runs one command line
func (sh *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if sh.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sh.timeout)
		defer cancel()
	}

	name, rest := cut(line)
	switch name {
	case "help":
		sh.help()
		return nil
	case "quit", "exit":
		return errQuit
	case "confirm":
		if sh.current == nil {
			return confirm.ErrNotPending
		}
		return sh.current.confirmDelete(ctx)
	case "cancel":
		if sh.current == nil {
			return errors.New("nothing to cancel")
		}
		return sh.current.CancelDelete()
	case "notifications":
		return sh.notificationCommand(ctx, rest)
	case "tickets":
		return sh.ticketCommand(ctx, rest)
	}

	s, ok := sh.screens[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", name)
	}
	sh.current = s
	return sh.screenCommand(ctx, name, s, rest)
}

func (sh *Shell) screenCommand(ctx context.Context, name string, s screen, args string) error {
	action, rest := cut(args)
	switch action {
	case "", "list":
		s.render(sh.out)
		return nil
	case "load":
		if err := s.Load(ctx); err != nil {
			return err
		}
		s.render(sh.out)
		return nil
	case "filter":
		if rest == "clear" {
			s.ClearFilters()
		} else {
			for _, kv := range strings.Fields(rest) {
				k, v, found := strings.Cut(kv, "=")
				if !found {
					return fmt.Errorf("filter expects key=value, got %q", kv)
				}
				if err := s.SetFilter(k, v); err != nil {
					return err
				}
			}
		}
		s.render(sh.out)
		return nil
	case "sort":
		if err := s.SetSort(rest); err != nil {
			return err
		}
		s.render(sh.out)
		return nil
	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("invalid page %q", rest)
		}
		s.SetPage(n)
		s.render(sh.out)
		return nil
	case "create":
		return s.create(ctx, rest)
	case "update":
		id, raw := cut(rest)
		return s.update(ctx, id, raw)
	case "delete":
		if err := s.requestDelete(ctx, rest); err != nil {
			return err
		}
		if w := s.DeleteWarning(); w != "" {
			fmt.Fprintln(sh.out, "warning:", w)
		}
		fmt.Fprintf(sh.out, "delete %s %s? type confirm or cancel\n", strings.TrimSuffix(name, "s"), rest)
		return nil
	case "cancel":
		if name != "voyages" || sh.voyages == nil {
			return console.ErrUnsupported
		}
		id, err := int64Key(rest)
		if err != nil {
			return err
		}
		_, err = console.CancelVoyage(ctx, sh.voyages, sh.api, id)
		return err
	}
	return fmt.Errorf("unknown %s action %q", name, action)
}

func (sh *Shell) notificationCommand(ctx context.Context, args string) error {
	if sh.notifications == nil {
		return errors.New("notifications need a signed-in user")
	}
	action, rest := cut(args)
	switch action {
	case "", "list":
		if err := sh.notifications.Load(ctx); err != nil {
			return err
		}
		items := sh.notifications.Items()
		if len(items) == 0 {
			fmt.Fprintln(sh.out, "no notifications")
		}
		for _, n := range items {
			fmt.Fprintln(sh.out, notificationRow(n))
		}
		fmt.Fprintf(sh.out, "%d unread\n", sh.notifications.UnreadCount())
		return nil
	case "read-all":
		if err := sh.notifications.MarkAllRead(ctx); err != nil {
			return err
		}
		sh.banner.Success("All notifications marked as read")
		return nil
	case "read", "unread", "delete":
		id, err := int64Key(rest)
		if err != nil {
			return err
		}
		switch action {
		case "read":
			return sh.notifications.MarkRead(ctx, id)
		case "unread":
			return sh.notifications.MarkUnread(ctx, id)
		}
		return sh.notifications.Delete(ctx, id)
	}
	return fmt.Errorf("unknown notifications action %q", action)
}

func (sh *Shell) ticketCommand(ctx context.Context, args string) error {
	action, rest := cut(args)
	switch action {
	case "lookup":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return errors.New("usage: tickets lookup <ticketID> <email>")
		}
		t, err := sh.desk.Lookup(ctx, validation.TicketLookupForm{TicketID: fields[0], Email: fields[1]})
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, ticketRow(t))
		return nil
	case "cancel":
		id, err := int64Key(rest)
		if err != nil {
			return err
		}
		if err := sh.desk.Cancel(ctx, id); err != nil {
			return err
		}
		sh.banner.Success("Ticket cancelled successfully")
		return nil
	}
	return fmt.Errorf("unknown tickets action %q", action)
}

func (sh *Shell) help() {
	names := make([]string, 0, len(sh.screens))
	for name := range sh.screens {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(sh.out, "screens:", strings.Join(names, ", "))
	fmt.Fprintln(sh.out, "  <screen> list | load | filter k=v... | filter clear | sort key[:asc|desc] | page n")
	fmt.Fprintln(sh.out, "  <screen> create <json> | update <id> <json> | delete <id>")
	fmt.Fprintln(sh.out, "  voyages cancel <id>")
	fmt.Fprintln(sh.out, "  confirm | cancel")
	fmt.Fprintln(sh.out, "  notifications list | read <id> | unread <id> | delete <id> | read-all")
	fmt.Fprintln(sh.out, "  tickets lookup <ticketID> <email> | cancel <id>")
	fmt.Fprintln(sh.out, "  help | quit")
}

// cut splits off the first word of s
func cut(s string) (string, string) {
	head, tail, _ := strings.Cut(strings.TrimSpace(s), " ")
	return head, strings.TrimSpace(tail)
}

func stationRow(s model.Station) string {
	return fmt.Sprintf("%4d  %-30s %-15s %-8s %s", s.ID, s.Title, s.City, s.Status, s.PhoneNo)
}

func voyageRow(now func() time.Time) func(model.Voyage) string {
	return func(v model.Voyage) string {
		return fmt.Sprintf("%4d  %d -> %d  %s %s-%s  %-9s %-9s seats %d/%d/%d",
			v.ID, v.FromStationID, v.ToStationID, v.DepartureDate, v.DepartureTime, v.ArrivalTime,
			v.ShipType, v.DerivedStatus(now()), v.PromoSeats, v.EconomySeats, v.BusinessSeats)
	}
}

func announcementRow(a model.Announcement) string {
	return fmt.Sprintf("%4d  %s", a.ID, a.Title)
}

func activityLogRow(l model.ActivityLog) string {
	return fmt.Sprintf("%4d  %s  %-10s %-12s %s (%s): %s",
		l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.ActionType, l.EntityType, l.FullName, l.UserRole, l.Description)
}

func complaintRow(c model.Complaint) string {
	return fmt.Sprintf("%4d  %-8s %s <%s>: %s", c.ID, c.DisplayStatus(), c.Sender, c.Email, c.Subject)
}

func userRow(u model.User) string {
	return fmt.Sprintf("%s  %-25s %-30s %s", u.ID, u.DisplayName(), u.Email, u.Role)
}

func notificationRow(n model.Notification) string {
	mark := " "
	if !n.IsRead {
		mark = "*"
	}
	return fmt.Sprintf("%s %4d  %-18s %s: %s", mark, n.ID, n.Type, n.Title, n.Message)
}

func ticketRow(t model.Ticket) string {
	return fmt.Sprintf("%d  %s  voyage %d  %s x%d  %.2f", t.ID, t.TicketID, t.VoyageID, t.TicketClass, t.PassengerCount, t.TotalPrice)
}
