package console

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/confirm"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// NoForm is the form type of read-only screens
type NoForm struct{}

// ActiveVoyages returns the voyages whose status derived at now is active
func ActiveVoyages(voyages []model.Voyage, now time.Time) []model.Voyage {
	var out []model.Voyage
	for _, v := range voyages {
		if v.DerivedStatus(now) == model.VoyageActive {
			out = append(out, v)
		}
	}
	return out
}

// StationDeleteWarning describes the active voyages blocking a station delete, or ""
func StationDeleteWarning(active []model.Voyage) string {
	switch len(active) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("This station has 1 active voyage (departing %s %s). Deleting it may affect booked passengers.",
			active[0].DepartureDate, active[0].DepartureTime)
	}
	return fmt.Sprintf("This station has %d active voyages. Deleting it may affect booked passengers.", len(active))
}

// StationDeleteCheck looks up the voyages of a station before deletion.
// A 404 means the station has no voyages.
func StationDeleteCheck(api *backend.API, now func() time.Time) confirm.Check[int64] {
	return func(ctx context.Context, id int64) (string, error) {
		voyages, err := api.Voyages.ByStation(ctx, id)
		if err != nil && !backend.IsNotFound(err) {
			return "", err
		}
		return StationDeleteWarning(ActiveVoyages(voyages, now())), nil
	}
}

// StationResource manages stations
func StationResource(api *backend.API, now func() time.Time) Resource[int64, model.Station, validation.StationForm] {
	return Resource[int64, model.Station, validation.StationForm]{
		Name:     "stations",
		Singular: "Station",
		Key:      func(s model.Station) int64 { return s.ID },
		List:     api.Stations.List,
		Create: func(ctx context.Context, f validation.StationForm) (model.Station, error) {
			return api.Stations.Create(ctx, f.Station())
		},
		Update: func(ctx context.Context, id int64, f validation.StationForm) (model.Station, error) {
			s := f.Station()
			s.ID = id
			return api.Stations.Update(ctx, id, s)
		},
		Delete:      api.Stations.Delete,
		CheckDelete: StationDeleteCheck(api, now),
		Filters:     StationFilters,
		Sorters:     StationSorters,
	}
}

// VoyageResource manages voyages
func VoyageResource(api *backend.API, now func() time.Time) Resource[int64, model.Voyage, validation.VoyageForm] {
	return Resource[int64, model.Voyage, validation.VoyageForm]{
		Name:     "voyages",
		Singular: "Voyage",
		Key:      func(v model.Voyage) int64 { return v.ID },
		List:     api.Voyages.List,
		Create: func(ctx context.Context, f validation.VoyageForm) (model.Voyage, error) {
			return api.Voyages.Create(ctx, f.Voyage())
		},
		Update: func(ctx context.Context, id int64, f validation.VoyageForm) (model.Voyage, error) {
			v := f.Voyage()
			v.ID = id
			return api.Voyages.Update(ctx, id, v)
		},
		Delete:  api.Voyages.Delete,
		Filters: VoyageFilters(now),
		Sorters: VoyageSorters,
	}
}

// CancelVoyage cancels a voyage on the voyages screen
func CancelVoyage(ctx context.Context, s *Screen[int64, model.Voyage, validation.VoyageForm], api *backend.API, id int64) (model.Voyage, error) {
	return s.Mutate(ctx, "cancel", "Voyage cancelled successfully", func(ctx context.Context) (model.Voyage, error) {
		return api.Voyages.Cancel(ctx, id)
	})
}

// AnnouncementResource manages announcements
func AnnouncementResource(api *backend.API) Resource[int64, model.Announcement, validation.AnnouncementForm] {
	return Resource[int64, model.Announcement, validation.AnnouncementForm]{
		Name:     "announcements",
		Singular: "Announcement",
		Key:      func(a model.Announcement) int64 { return a.ID },
		List:     api.Announcements.List,
		Create: func(ctx context.Context, f validation.AnnouncementForm) (model.Announcement, error) {
			return api.Announcements.Create(ctx, f.Announcement())
		},
		Update: func(ctx context.Context, id int64, f validation.AnnouncementForm) (model.Announcement, error) {
			a := f.Announcement()
			a.ID = id
			return api.Announcements.Update(ctx, id, a)
		},
		Delete:  api.Announcements.Delete,
		Filters: AnnouncementFilters,
		Sorters: AnnouncementSorters,
	}
}

// ComplaintResource manages complaints; update is the manager reply
func ComplaintResource(api *backend.API) Resource[int64, model.Complaint, validation.ComplaintReplyForm] {
	return Resource[int64, model.Complaint, validation.ComplaintReplyForm]{
		Name:     "complaints",
		Singular: "Complaint",
		Key:      func(c model.Complaint) int64 { return c.ID },
		List:     api.Complaints.List,
		Update: func(ctx context.Context, id int64, f validation.ComplaintReplyForm) (model.Complaint, error) {
			return api.Complaints.Reply(ctx, id, f.Reply)
		},
		Delete:  api.Complaints.Delete,
		Filters: ComplaintFilters,
		Sorters: ComplaintSorters,
	}
}

// UserResource manages users; update changes the role
func UserResource(api *backend.API) Resource[string, model.User, validation.RoleForm] {
	return Resource[string, model.User, validation.RoleForm]{
		Name:     "users",
		Singular: "User",
		Key:      func(u model.User) string { return u.ID },
		List: func(ctx context.Context) ([]model.User, error) {
			byID, err := api.Users.All(ctx)
			if err != nil {
				return nil, err
			}
			return UserList(byID), nil
		},
		Update: func(ctx context.Context, id string, f validation.RoleForm) (model.User, error) {
			return api.Users.UpdateRole(ctx, id, f.Role)
		},
		Delete:  api.Users.Delete,
		Filters: UserFilters,
		Sorters: UserSorters,
	}
}

// UserList flattens the id-keyed user map into a list ordered by id
func UserList(byID map[string]model.User) []model.User {
	users := make([]model.User, 0, len(byID))
	for _, u := range byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// ActivityLogResource lists and deletes activity logs
func ActivityLogResource(api *backend.API) Resource[int64, model.ActivityLog, NoForm] {
	return Resource[int64, model.ActivityLog, NoForm]{
		Name:     "activity logs",
		Singular: "Activity log",
		Key:      func(l model.ActivityLog) int64 { return l.ID },
		List:     api.ActivityLogs.List,
		Delete:   api.ActivityLogs.Delete,
		Filters:  ActivityLogFilters,
		Sorters:  ActivityLogSorters,
	}
}
