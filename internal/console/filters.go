package console

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/listing"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// Filters maps a filter name to a builder reading its textual value
type Filters[T any] map[string]func(value string) (listing.Predicate[T], error)

// Build turns name=value pairs into one predicate. Empty values are skipped.
func (f Filters[T]) Build(values map[string]string) (listing.Predicate[T], error) {
	var preds []listing.Predicate[T]
	for name, value := range values {
		if value == "" {
			continue
		}
		build, ok := f[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownFilter, name)
		}
		p, err := build(value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return listing.All(preds...), nil
}

func parseDay(value string) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return d, nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

// StationFilters: q (title, city, personnel), status, city
var StationFilters = Filters[model.Station]{
	"q": func(v string) (listing.Predicate[model.Station], error) {
		return listing.Contains(v,
			func(s model.Station) string { return s.Title },
			func(s model.Station) string { return s.City },
			func(s model.Station) string { return s.Personnel },
		), nil
	},
	"status": func(v string) (listing.Predicate[model.Station], error) {
		return listing.EqualsFold(v, func(s model.Station) string { return s.Status }), nil
	},
	"city": func(v string) (listing.Predicate[model.Station], error) {
		return listing.EqualsFold(v, func(s model.Station) string { return s.City }), nil
	},
}

var StationSorters = listing.Sorters[model.Station]{
	"id":    listing.By(func(s model.Station) int64 { return s.ID }),
	"title": listing.ByText(func(s model.Station) string { return s.Title }),
	"city":  listing.ByText(func(s model.Station) string { return s.City }),
}

// VoyageFilters filters on the status derived at now(): status, date, from, to, ship
func VoyageFilters(now func() time.Time) Filters[model.Voyage] {
	return Filters[model.Voyage]{
		"status": func(v string) (listing.Predicate[model.Voyage], error) {
			return listing.EqualsFold(v, func(x model.Voyage) string { return x.DerivedStatus(now()) }), nil
		},
		"date": func(v string) (listing.Predicate[model.Voyage], error) {
			if _, err := parseDay(v); err != nil {
				return nil, err
			}
			return listing.Equals(v, func(x model.Voyage) string { return x.DepartureDate }), nil
		},
		"from": func(v string) (listing.Predicate[model.Voyage], error) {
			id, err := parseID(v)
			if err != nil {
				return nil, err
			}
			return listing.Equals(id, func(x model.Voyage) int64 { return x.FromStationID }), nil
		},
		"to": func(v string) (listing.Predicate[model.Voyage], error) {
			id, err := parseID(v)
			if err != nil {
				return nil, err
			}
			return listing.Equals(id, func(x model.Voyage) int64 { return x.ToStationID }), nil
		},
		"type": func(v string) (listing.Predicate[model.Voyage], error) {
			return listing.EqualsFold(v, func(x model.Voyage) string { return x.ShipType }), nil
		},
	}
}

var VoyageSorters = listing.Sorters[model.Voyage]{
	"id": listing.By(func(v model.Voyage) int64 { return v.ID }),
	// Layouts sort lexically in time order
	"departure": listing.By(func(v model.Voyage) string { return v.DepartureDate + " " + v.DepartureTime }),
	"seats":     listing.By(func(v model.Voyage) int { return v.PromoSeats + v.EconomySeats + v.BusinessSeats }),
}

var AnnouncementFilters = Filters[model.Announcement]{
	"q": func(v string) (listing.Predicate[model.Announcement], error) {
		return listing.Contains(v,
			func(a model.Announcement) string { return a.Title },
			func(a model.Announcement) string { return a.Description },
		), nil
	},
}

var AnnouncementSorters = listing.Sorters[model.Announcement]{
	"id":    listing.By(func(a model.Announcement) int64 { return a.ID }),
	"title": listing.ByText(func(a model.Announcement) string { return a.Title }),
}

// ComplaintFilters accept both backend (active/solved) and display (pending/resolved) statuses
var ComplaintFilters = Filters[model.Complaint]{
	"q": func(v string) (listing.Predicate[model.Complaint], error) {
		return listing.Contains(v,
			func(c model.Complaint) string { return c.Subject },
			func(c model.Complaint) string { return c.Sender },
			func(c model.Complaint) string { return c.Email },
		), nil
	},
	"status": func(v string) (listing.Predicate[model.Complaint], error) {
		want := listing.Fold(v)
		return func(c model.Complaint) bool {
			return listing.Fold(c.Status) == want || c.DisplayStatus() == want
		}, nil
	},
}

var ComplaintSorters = listing.Sorters[model.Complaint]{
	"id":      listing.By(func(c model.Complaint) int64 { return c.ID }),
	"subject": listing.ByText(func(c model.Complaint) string { return c.Subject }),
	"status":  listing.By(func(c model.Complaint) string { return c.DisplayStatus() }),
}

var UserFilters = Filters[model.User]{
	"q": func(v string) (listing.Predicate[model.User], error) {
		return listing.Contains(v,
			model.User.DisplayName,
			func(u model.User) string { return u.Email },
		), nil
	},
	"role": func(v string) (listing.Predicate[model.User], error) {
		return listing.EqualsFold(v, func(u model.User) string { return u.Role }), nil
	},
}

var UserSorters = listing.Sorters[model.User]{
	"name":  listing.ByText(model.User.DisplayName),
	"email": listing.By(func(u model.User) string { return u.Email }),
	"role":  listing.By(func(u model.User) string { return u.Role }),
}

var ActivityLogFilters = Filters[model.ActivityLog]{
	"q": func(v string) (listing.Predicate[model.ActivityLog], error) {
		return listing.Contains(v,
			func(l model.ActivityLog) string { return l.Description },
			func(l model.ActivityLog) string { return l.DescriptionTr },
			func(l model.ActivityLog) string { return l.FullName },
		), nil
	},
	"type": func(v string) (listing.Predicate[model.ActivityLog], error) {
		return listing.EqualsFold(v, func(l model.ActivityLog) string { return l.ActionType }), nil
	},
	"entity": func(v string) (listing.Predicate[model.ActivityLog], error) {
		return listing.EqualsFold(v, func(l model.ActivityLog) string { return l.EntityType }), nil
	},
	"role": func(v string) (listing.Predicate[model.ActivityLog], error) {
		return listing.EqualsFold(v, func(l model.ActivityLog) string { return l.UserRole }), nil
	},
	"date": func(v string) (listing.Predicate[model.ActivityLog], error) {
		day, err := parseDay(v)
		if err != nil {
			return nil, err
		}
		return listing.SameDay(day, func(l model.ActivityLog) time.Time { return l.CreatedAt }), nil
	},
}

var ActivityLogSorters = listing.Sorters[model.ActivityLog]{
	"id":     listing.By(func(l model.ActivityLog) int64 { return l.ID }),
	"date":   listing.ByTime(func(l model.ActivityLog) time.Time { return l.CreatedAt }),
	"user":   listing.ByText(func(l model.ActivityLog) string { return l.FullName }),
	"action": listing.By(func(l model.ActivityLog) string { return l.ActionType }),
	"entity": listing.By(func(l model.ActivityLog) string { return l.EntityType }),
}
