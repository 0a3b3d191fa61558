package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "Scheduled"
	FlightStatusSoldOut   FlightStatus = "Sold Out"
)

type Flight struct {
	ID             int64        `json:"flight_id"`
	FlightNumber   string       `json:"flight_no"`
	Airline        string       `json:"airline"`
	Origin         string       `json:"origin"`
	Destination    string       `json:"destination"`
	DepartureTime  time.Time    `json:"departure_time"`
	ArrivalTime    time.Time    `json:"arrival_time"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	BasePrice      float64      `json:"base_price"`
	DynamicPrice   float64      `json:"dynamic_price"`
	Status         FlightStatus `json:"status"`
}

// SyncStatus mirrors the seat counter into Status: a flight is sold out
// exactly when no seats remain.
func (f *Flight) SyncStatus() {
	if f.AvailableSeats <= 0 {
		f.Status = FlightStatusSoldOut
		return
	}
	f.Status = FlightStatusScheduled
}

func (f Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

func (f Flight) Snapshot() FlightSnapshot {
	return FlightSnapshot{
		FlightNumber:  f.FlightNumber,
		Airline:       f.Airline,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
	}
}

type FareHistoryPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	AvailableSeats int       `json:"available_seats"`
}
