package validation

import (
	"strings"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/model"
)

// StationForm is the admin station editor
type StationForm struct {
	Title     string `json:"title" validate:"notblank,min=3,max=50,stationtitle"`
	Personnel string `json:"personnel" validate:"notblank,min=2,max=50,personname"`
	PhoneNo   string `json:"phoneno" validate:"notblank,phoneno"`
	City      string `json:"city" validate:"notblank,min=2,max=30,personname"`
	Address   string `json:"address" validate:"notblank,min=5,max=200"`
	Status    string `json:"status" validate:"required,oneof=active inactive"`
}

// Station converts the trimmed form into a station
func (f StationForm) Station() model.Station {
	return model.Station{
		Title:     strings.TrimSpace(f.Title),
		Personnel: strings.TrimSpace(f.Personnel),
		PhoneNo:   strings.ReplaceAll(f.PhoneNo, " ", ""),
		City:      strings.TrimSpace(f.City),
		Address:   strings.TrimSpace(f.Address),
		Status:    f.Status,
	}
}

// StationFormFrom fills the editor from an existing station
func StationFormFrom(s model.Station) StationForm {
	return StationForm{Title: s.Title, Personnel: s.Personnel, PhoneNo: s.PhoneNo, City: s.City, Address: s.Address, Status: s.Status}
}

// VoyageForm is the admin voyage editor
type VoyageForm struct {
	FromStationID int64  `json:"fromStationId" validate:"required,gt=0"`
	ToStationID   int64  `json:"toStationId" validate:"required,gt=0,nefield=FromStationID"`
	DepartureDate string `json:"departureDate" validate:"required,isodate"`
	DepartureTime string `json:"departureTime" validate:"required,hhmm"`
	ArrivalTime   string `json:"arrivalTime" validate:"required,hhmm"`
	ShipType      string `json:"shipType" validate:"required,oneof=seabus catamaran ferry"`
	FuelType      string `json:"fuelType" validate:"required,oneof=diesel electric hybrid lng"`
	PromoSeats    int    `json:"promoSeats" validate:"gte=0,lte=1000"`
	EconomySeats  int    `json:"economySeats" validate:"gte=0,lte=1000"`
	BusinessSeats int    `json:"businessSeats" validate:"gte=0,lte=1000"`
}

// Voyage converts the form into a voyage
func (f VoyageForm) Voyage() model.Voyage {
	return model.Voyage{
		FromStationID: f.FromStationID,
		ToStationID:   f.ToStationID,
		DepartureDate: f.DepartureDate,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Status:        model.VoyageActive,
		ShipType:      f.ShipType,
		FuelType:      f.FuelType,
		PromoSeats:    f.PromoSeats,
		EconomySeats:  f.EconomySeats,
		BusinessSeats: f.BusinessSeats,
	}
}

// AnnouncementForm is the admin announcement editor
type AnnouncementForm struct {
	Title       string `json:"title" validate:"notblank,min=3,max=100"`
	Description string `json:"description" validate:"notblank,min=10,max=500"`
	Details     string `json:"details" validate:"max=5000"`
	ImageBase64 string `json:"imageBase64" validate:"omitempty,b64image"`
}

// Announcement converts the form into an announcement
func (f AnnouncementForm) Announcement() model.Announcement {
	return model.Announcement{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Details:     strings.TrimSpace(f.Details),
		ImageBase64: f.ImageBase64,
	}
}

// ComplaintReplyForm is the manager reply box
type ComplaintReplyForm struct {
	Reply string `json:"reply" validate:"notblank,min=10,max=2000"`
}

// RoleForm changes a user's role; the user comes from the route
type RoleForm struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

// BroadcastForm sends a notification to every user
type BroadcastForm struct {
	Title     string `json:"title" validate:"notblank,min=3,max=100"`
	TitleTr   string `json:"titleTr" validate:"max=100"`
	Message   string `json:"message" validate:"notblank,min=5,max=1000"`
	MessageTr string `json:"messageTr" validate:"max=1000"`
}

// Broadcast converts the form into a broadcast
func (f BroadcastForm) Broadcast() model.Broadcast {
	return model.Broadcast{
		Title:     strings.TrimSpace(f.Title),
		TitleTr:   strings.TrimSpace(f.TitleTr),
		Message:   strings.TrimSpace(f.Message),
		MessageTr: strings.TrimSpace(f.MessageTr),
	}
}

// TicketLookupForm is the "check my ticket" form
type TicketLookupForm struct {
	TicketID string `json:"ticketID" validate:"notblank,ticketid"`
	Email    string `json:"email" validate:"notblank,email"`
}

// SearchForm is the voyage search on the landing page
type SearchForm struct {
	FromStationID int64  `json:"fromStationId" validate:"required,gt=0"`
	ToStationID   int64  `json:"toStationId" validate:"required,gt=0,nefield=FromStationID"`
	DepartureDate string `json:"departureDate" validate:"required,isodate"`
	RoundTrip     bool   `json:"roundTrip"`
	ReturnDate    string `json:"returnDate" validate:"omitempty,isodate"`
	Passengers    int    `json:"passengers" validate:"gte=1,lte=10"`
}

// PersonForm holds the contact details of a passenger
type PersonForm struct {
	FullName string `json:"fullName" validate:"notblank,min=2,max=50,personname"`
	Email    string `json:"email" validate:"notblank,email"`
	Phone    string `json:"phone" validate:"omitempty,phoneno"`
}

// PreferencesForm edits the user's preferences
type PreferencesForm struct {
	Language           string `json:"language" validate:"required,oneof=en tr"`
	Currency           string `json:"currency" validate:"required,oneof=TRY USD EUR GBP"`
	EmailNotifications bool   `json:"emailNotifications"`
}

// Preferences converts the form into preferences
func (f PreferencesForm) Preferences() model.UserPreferences {
	return model.UserPreferences{Language: f.Language, Currency: f.Currency, EmailNotifications: f.EmailNotifications}
}

// ConversionForm is a currency conversion request
type ConversionForm struct {
	Amount float64 `json:"amount" validate:"gte=0.01"`
	From   string  `json:"from" validate:"required,oneof=TRY USD EUR GBP"`
	To     string  `json:"to" validate:"required,oneof=TRY USD EUR GBP"`
}
