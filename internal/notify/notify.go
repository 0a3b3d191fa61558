// Package notify turns booking events into passenger notices.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/internal/kafka"
)

type Notice struct {
	To      string
	Subject string
	Body    string
}

// Render returns the notice for an event. ok is false for event types that
// do not notify the passenger.
func Render(event kafka.BookingEvent) (Notice, bool) {
	n := Notice{To: event.PassengerContact}
	switch event.Type {
	case kafka.EventBookingReserved:
		n.Subject = fmt.Sprintf("Seat held on %s (%s)", event.FlightNumber, event.PNR)
		n.Body = fmt.Sprintf("Hi %s, seat %s is held for you. Total $%.2f. Complete payment before %s.",
			event.PassengerName, event.SeatLabel, event.TotalPrice, event.ExpiresAt.Format("15:04 MST"))
	case kafka.EventBookingConfirmed:
		n.Subject = fmt.Sprintf("Booking confirmed: %s", event.PNR)
		n.Body = fmt.Sprintf("Hi %s, your booking on %s is confirmed. Seat %s. Paid $%.2f.",
			event.PassengerName, event.FlightNumber, event.SeatLabel, event.TotalPrice)
	case kafka.EventBookingCancelled:
		n.Subject = fmt.Sprintf("Booking cancelled: %s", event.PNR)
		n.Body = fmt.Sprintf("Hi %s, your booking on %s has been cancelled.", event.PassengerName, event.FlightNumber)
	case kafka.EventBookingExpired:
		n.Subject = fmt.Sprintf("Reservation expired: %s", event.PNR)
		n.Body = fmt.Sprintf("Hi %s, payment was not received in time and your seat on %s was released.",
			event.PassengerName, event.FlightNumber)
	default:
		return Notice{}, false
	}
	return n, true
}

// Sender delivers notices to the structured log.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log.Named("notify")}
}

func (s *Sender) Send(_ context.Context, event kafka.BookingEvent) error {
	n, ok := Render(event)
	if !ok {
		s.log.Debug("no notice for event", zap.String("type", event.Type), zap.String("pnr", event.PNR))
		return nil
	}
	s.log.Info("notice sent",
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
		zap.String("pnr", event.PNR),
	)
	return nil
}
