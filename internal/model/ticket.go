package model

import "time"

// Ticket is a booking for one or more passengers on a voyage
type Ticket struct {
	ID             int64       `json:"id"`
	TicketID       string      `json:"ticketID"`
	VoyageID       int64       `json:"voyageId"`
	TicketClass    string      `json:"ticketClass"`
	PassengerCount int         `json:"passengerCount"`
	TotalPrice     float64     `json:"totalPrice"`
	SelectedSeats  []string    `json:"selectedSeats"`
	Passengers     []Passenger `json:"passengers"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Passenger is a traveller listed on a ticket
type Passenger struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birthDate,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Conversion is the result of a currency conversion
type Conversion struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Converted float64 `json:"convertedAmount"`
	Rate      float64 `json:"rate,omitempty"`
}
