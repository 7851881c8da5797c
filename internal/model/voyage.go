package model

import (
	"fmt"
	"time"
)

// Voyage statuses. Active and completed are derived client-side from the date.
const (
	VoyageActive    = "active"
	VoyageCancelled = "cancel"
	VoyageCompleted = "completed"
)

// Seat classes
const (
	ClassPromo    = "promo"
	ClassEconomy  = "economy"
	ClassBusiness = "business"
)

// SeatClasses lists every seat class in display order
var SeatClasses = []string{ClassPromo, ClassEconomy, ClassBusiness}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Voyage is a scheduled sailing between two stations
type Voyage struct {
	ID            int64  `json:"id"`
	FromStationID int64  `json:"fromStationId"`
	ToStationID   int64  `json:"toStationId"`
	DepartureDate string `json:"departureDate"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Status        string `json:"status"`
	ShipType      string `json:"shipType"`
	FuelType      string `json:"fuelType"`
	PromoSeats    int    `json:"promoSeats"`
	EconomySeats  int    `json:"economySeats"`
	BusinessSeats int    `json:"businessSeats"`
}

// Departure returns the departure instant in loc
func (v Voyage) Departure(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, v.DepartureDate+" "+v.DepartureTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("voyage %d: invalid departure %q %q: %w", v.ID, v.DepartureDate, v.DepartureTime, err)
	}
	return t, nil
}

// DerivedStatus computes the status shown to users. A cancelled voyage stays
// cancelled; otherwise it is completed once its departure lies before now.
func (v Voyage) DerivedStatus(now time.Time) string {
	if v.Status == VoyageCancelled {
		return VoyageCancelled
	}
	dep, err := v.Departure(now.Location())
	if err != nil {
		return v.Status
	}
	if dep.Before(now) {
		return VoyageCompleted
	}
	return VoyageActive
}

// Capacity returns the configured seat count of a class
func (v Voyage) Capacity(class string) int {
	switch class {
	case ClassPromo:
		return v.PromoSeats
	case ClassEconomy:
		return v.EconomySeats
	case ClassBusiness:
		return v.BusinessSeats
	}
	return 0
}

// SeatsSold holds per-class sold seat counts for one voyage
type SeatsSold struct {
	VoyageID int64 `json:"voyageId"`
	Promo    int   `json:"promo"`
	Economy  int   `json:"economy"`
	Business int   `json:"business"`
}

// Sold returns the sold count of a class
func (s SeatsSold) Sold(class string) int {
	switch class {
	case ClassPromo:
		return s.Promo
	case ClassEconomy:
		return s.Economy
	case ClassBusiness:
		return s.Business
	}
	return 0
}

// Available returns the remaining seats of a class, never negative
func (v Voyage) Available(sold SeatsSold, class string) int {
	n := v.Capacity(class) - sold.Sold(class)
	if n < 0 {
		return 0
	}
	return n
}
