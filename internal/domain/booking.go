package domain

import "time"

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "Reserved"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusExpired   BookingStatus = "Expired"
)

// FlightSnapshot is the route and schedule copied into a booking when it is
// reserved. Receipts are rendered from it and never from live inventory.
type FlightSnapshot struct {
	FlightNumber  string    `json:"flight_no"`
	Airline       string    `json:"airline"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
}

type PaymentSummary struct {
	PaymentID string    `json:"payment_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"payment_method"`
	Status    string    `json:"payment_status"`
	PaidAt    time.Time `json:"paid_at"`
}

type Booking struct {
	PNR              string          `json:"pnr"`
	FlightID         int64           `json:"flight_id"`
	Flight           FlightSnapshot  `json:"flight"`
	SeatLabel        string          `json:"seat_no"`
	PassengerName    string          `json:"passenger_fullname"`
	PassengerContact string          `json:"passenger_contact"`
	AddOnIDs         []string        `json:"addons,omitempty"`
	FarePrice        float64         `json:"fare_price"`
	AddOnsTotal      float64         `json:"addons_total"`
	TotalPrice       float64         `json:"total_price"`
	Status           BookingStatus   `json:"status"`
	BookedAt         time.Time       `json:"booking_date"`
	ExpiresAt        time.Time       `json:"expires_at"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	Payment          *PaymentSummary `json:"payment,omitempty"`
}

// Overdue reports whether a reserved booking has reached its payment deadline.
func (b Booking) Overdue(now time.Time) bool {
	return b.Status == BookingStatusReserved && !now.Before(b.ExpiresAt)
}

func (b Booking) Clone() Booking {
	out := b
	if b.AddOnIDs != nil {
		out.AddOnIDs = append([]string(nil), b.AddOnIDs...)
	}
	if b.ConfirmedAt != nil {
		t := *b.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if b.Payment != nil {
		p := *b.Payment
		out.Payment = &p
	}
	return out
}

type ReceiptLine struct {
	AddOnID string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
}

type Receipt struct {
	Booking     Booking       `json:"booking"`
	FarePrice   float64       `json:"fare_price"`
	AddOns      []ReceiptLine `json:"addons"`
	AddOnsTotal float64       `json:"addons_total"`
	TotalPrice  float64       `json:"total_price"`
}
