package booking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/internal/catalog"
	"github.com/thotadurga2464/flight-booking/internal/clock"
	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/kafka"
	"github.com/thotadurga2464/flight-booking/internal/pricing"
	"github.com/thotadurga2464/flight-booking/internal/repository"
	"github.com/thotadurga2464/flight-booking/internal/validation"
)

const (
	DefaultPaymentWindow = 900 * time.Second

	PaymentMethod    = "Credit Card"
	PaymentCompleted = "Completed"

	pnrPrefix      = "PNR"
	pnrLength      = 8
	maxPNRAttempts = 5
)

var (
	reservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_reserved_total",
		Help: "The total number of seats reserved",
	})
	soldOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_sold_out_total",
		Help: "The total number of reservations rejected because the flight was sold out",
	})
	confirmationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_confirmed_total",
		Help: "The total number of bookings confirmed by payment",
	})
	cancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "The total number of bookings cancelled",
	})
	expiriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_expired_total",
		Help: "The total number of reservations released at their payment deadline",
	})
)

var (
	errNotDue  = errors.New("booking is not past its deadline")
	errOverdue = errors.New("booking is past its deadline")
)

type BookingUseCase interface {
	Reserve(ctx context.Context, in ReserveInput) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, pnr string) (*domain.Booking, error)
	Cancel(ctx context.Context, pnr string) (*domain.Booking, error)
	Expire(ctx context.Context, pnr string) (bool, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	Receipt(ctx context.Context, pnr string) (*domain.Receipt, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ExpireDue(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// publishAttempts bounds how long a request can stall on an unreachable broker.
const publishAttempts = 3

type ReserveInput struct {
	FlightID         int64    `json:"flight_id"`
	SeatLabel        string   `json:"seat_no" validate:"required,max=10"`
	PassengerName    string   `json:"passenger_fullname" validate:"required,max=100"`
	PassengerContact string   `json:"passenger_contact" validate:"required,max=50"`
	AddOnIDs         []string `json:"addons"`
}

// Ledger records reservations and drives their seat accounting. It is the
// only writer of bookings and, through the flight repository, the only
// caller that moves seat counts.
type Ledger struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
	catalog  *catalog.Catalog
	log      *zap.Logger

	clock              clock.Clock
	paymentWindow      time.Duration
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	newPNR             func() string
}

type Option func(*Ledger)

func WithProducer(p Producer, bookingTopic string) Option {
	return func(l *Ledger) {
		l.producer = p
		l.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) Option {
	return func(l *Ledger) {
		l.notificationsTopic = topic
	}
}

func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

func WithPaymentWindow(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.paymentWindow = d
		}
	}
}

func WithPNRGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newPNR = gen }
}

func NewLedger(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	addOns *catalog.Catalog,
	log *zap.Logger,
	opts ...Option,
) *Ledger {
	l := &Ledger{
		bookings:      bookings,
		flights:       flights,
		catalog:       addOns,
		log:           log.Named("ledger"),
		clock:         clock.Real(),
		paymentWindow: DefaultPaymentWindow,
		newPNR:        NewPNR,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewPNR returns "PNR" followed by eight upper-case base-36 characters taken
// from a random UUID.
func NewPNR() string {
	id := uuid.New()
	s := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(s) < pnrLength {
		s = strings.Repeat("0", pnrLength-len(s)) + s
	}
	return pnrPrefix + s[len(s)-pnrLength:]
}

// Reserve takes a seat and records a Reserved booking priced at the flight's
// dynamic price at that instant plus the selected add-ons.
func (l *Ledger) Reserve(ctx context.Context, in ReserveInput) (*domain.Booking, error) {
	in.SeatLabel = strings.TrimSpace(in.SeatLabel)
	in.PassengerName = strings.TrimSpace(in.PassengerName)
	in.PassengerContact = strings.TrimSpace(in.PassengerContact)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	flight, err := l.flights.ReserveSeat(ctx, in.FlightID)
	if err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			soldOutTotal.Inc()
		}
		return nil, err
	}

	now := l.clock.Now()
	addOnIDs := append([]string{}, in.AddOnIDs...)
	addOnsTotal := l.catalog.TotalFor(addOnIDs)

	b := domain.Booking{
		FlightID:         flight.ID,
		Flight:           flight.Snapshot(),
		SeatLabel:        in.SeatLabel,
		PassengerName:    in.PassengerName,
		PassengerContact: in.PassengerContact,
		AddOnIDs:         addOnIDs,
		FarePrice:        flight.DynamicPrice,
		AddOnsTotal:      addOnsTotal,
		TotalPrice:       pricing.Round2(flight.DynamicPrice + addOnsTotal),
		Status:           domain.BookingStatusReserved,
		BookedAt:         now,
		ExpiresAt:        now.Add(l.paymentWindow),
	}

	for attempt := 1; ; attempt++ {
		b.PNR = l.newPNR()
		err = l.bookings.Create(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrConflict) && attempt < maxPNRAttempts {
			continue
		}
		l.releaseSeat(ctx, b)
		return nil, fmt.Errorf("store booking: %w", err)
	}

	reservationsTotal.Inc()
	l.log.Info("seat reserved",
		zap.String("pnr", b.PNR),
		zap.String("flight_no", b.Flight.FlightNumber),
		zap.Float64("total_price", b.TotalPrice),
		zap.Time("expires_at", b.ExpiresAt),
	)
	l.publish(ctx, kafka.EventBookingReserved, &b)
	return &b, nil
}

// ConfirmPayment moves a Reserved booking to Confirmed. Confirming an
// already confirmed booking succeeds without change. A booking found past its
// deadline is expired instead and ErrReservationExpired is returned.
func (l *Ledger) ConfirmPayment(ctx context.Context, pnr string) (*domain.Booking, error) {
	now := l.clock.Now()
	var (
		overdue   bool
		confirmed bool
	)

	b, err := l.bookings.Update(ctx, pnr, func(b *domain.Booking) error {
		// Redis re-runs the callback after a WATCH conflict.
		overdue, confirmed = false, false
		switch {
		case b.Status == domain.BookingStatusConfirmed:
			return nil
		case b.Overdue(now):
			overdue = true
			return errOverdue
		case b.Status != domain.BookingStatusReserved:
			return fmt.Errorf("confirm %s booking: %w", b.Status, domain.ErrStatusConflict)
		}
		paidAt := now
		b.Status = domain.BookingStatusConfirmed
		b.ConfirmedAt = &paidAt
		b.Payment = &domain.PaymentSummary{
			PaymentID: uuid.NewString(),
			Amount:    b.TotalPrice,
			Method:    PaymentMethod,
			Status:    PaymentCompleted,
			PaidAt:    paidAt,
		}
		confirmed = true
		return nil
	})
	if overdue {
		if _, err := l.expire(ctx, pnr); err != nil {
			l.log.Error("expire overdue booking failed", zap.String("pnr", pnr), zap.Error(err))
		}
		return nil, domain.ErrReservationExpired
	}
	if err != nil {
		return nil, err
	}

	if confirmed {
		confirmationsTotal.Inc()
		l.log.Info("booking confirmed", zap.String("pnr", pnr), zap.String("payment_id", b.Payment.PaymentID))
		l.publish(ctx, kafka.EventBookingConfirmed, b)
	}
	return b, nil
}

// Cancel removes the booking whatever its status and returns one seat to its
// flight if the flight still exists. A reservation that had already run past
// its deadline is accounted as expired and reported as ErrReservationExpired.
func (l *Ledger) Cancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	removed, err := l.bookings.Delete(ctx, pnr, nil)
	if err != nil {
		return nil, err
	}

	if removed.Overdue(l.clock.Now()) {
		l.finishExpiry(ctx, removed)
		return nil, domain.ErrReservationExpired
	}

	l.releaseSeat(ctx, *removed)
	removed.Status = domain.BookingStatusCancelled
	cancellationsTotal.Inc()
	l.log.Info("booking cancelled", zap.String("pnr", pnr))
	l.publish(ctx, kafka.EventBookingCancelled, removed)
	return removed, nil
}

// Expire releases a Reserved booking whose deadline has passed. It reports
// whether this call performed the expiry; concurrent callers race on a
// conditional delete so the seat is returned once.
func (l *Ledger) Expire(ctx context.Context, pnr string) (bool, error) {
	b, err := l.expire(ctx, pnr)
	return b != nil, err
}

func (l *Ledger) expire(ctx context.Context, pnr string) (*domain.Booking, error) {
	now := l.clock.Now()
	removed, err := l.bookings.Delete(ctx, pnr, func(b domain.Booking) error {
		if !b.Overdue(now) {
			return errNotDue
		}
		return nil
	})
	if errors.Is(err, errNotDue) || errors.Is(err, domain.ErrBookingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.finishExpiry(ctx, removed)
	return removed, nil
}

func (l *Ledger) finishExpiry(ctx context.Context, b *domain.Booking) {
	l.releaseSeat(ctx, *b)
	b.Status = domain.BookingStatusExpired
	expiriesTotal.Inc()
	l.log.Info("reservation expired", zap.String("pnr", b.PNR), zap.Time("expires_at", b.ExpiresAt))
	l.publish(ctx, kafka.EventBookingExpired, b)
}

func (l *Ledger) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	b, err := l.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if b.Overdue(l.clock.Now()) {
		if _, err := l.expire(ctx, pnr); err != nil {
			return nil, err
		}
		return nil, domain.ErrReservationExpired
	}
	return b, nil
}

// Receipt is rendered from the booking's own snapshot, never from current
// inventory.
func (l *Ledger) Receipt(ctx context.Context, pnr string) (*domain.Receipt, error) {
	b, err := l.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	return &domain.Receipt{
		Booking:     *b,
		FarePrice:   b.FarePrice,
		AddOns:      l.catalog.Lines(b.AddOnIDs),
		AddOnsTotal: b.AddOnsTotal,
		TotalPrice:  b.TotalPrice,
	}, nil
}

// List returns live bookings, expiring any found past their deadline.
func (l *Ledger) List(ctx context.Context) ([]domain.Booking, error) {
	all, err := l.bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	out := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if b.Overdue(now) {
			if _, err := l.expire(ctx, b.PNR); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ExpireDue sweeps every overdue reservation and returns those this call
// expired.
func (l *Ledger) ExpireDue(ctx context.Context) ([]domain.Booking, error) {
	all, err := l.bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	expired := make([]domain.Booking, 0)
	for _, b := range all {
		if !b.Overdue(now) {
			continue
		}
		removed, err := l.expire(ctx, b.PNR)
		if err != nil {
			return expired, err
		}
		if removed != nil {
			expired = append(expired, *removed)
		}
	}
	return expired, nil
}

func (l *Ledger) releaseSeat(ctx context.Context, b domain.Booking) {
	found, err := l.flights.ReleaseSeat(ctx, b.FlightID)
	if err != nil {
		l.log.Error("release seat failed", zap.String("pnr", b.PNR), zap.Int64("flight_id", b.FlightID), zap.Error(err))
		return
	}
	if !found {
		l.log.Warn("flight no longer exists, seat not restored", zap.String("pnr", b.PNR), zap.Int64("flight_id", b.FlightID))
	}
}

func (l *Ledger) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if l.producer == nil || l.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		PNR:              b.PNR,
		FlightID:         b.FlightID,
		FlightNumber:     b.Flight.FlightNumber,
		SeatLabel:        b.SeatLabel,
		PassengerName:    b.PassengerName,
		PassengerContact: b.PassengerContact,
		Status:           string(b.Status),
		TotalPrice:       b.TotalPrice,
		ExpiresAt:        b.ExpiresAt,
		OccurredAt:       l.clock.Now(),
	}
	if err := l.producer.PublishWithRetry(ctx, l.bookingTopic, b.PNR, event, publishAttempts); err != nil {
		l.log.Warn("publish booking event failed", zap.String("type", eventType), zap.String("pnr", b.PNR), zap.Error(err))
		return
	}
	if l.notificationsTopic != "" {
		if err := l.producer.PublishWithRetry(ctx, l.notificationsTopic, b.PNR, event, publishAttempts); err != nil {
			l.log.Warn("publish notification failed", zap.String("type", eventType), zap.String("pnr", b.PNR), zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*Ledger)(nil)
