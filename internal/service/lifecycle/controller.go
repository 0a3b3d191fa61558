// Package lifecycle owns the payment deadline of reservations: it arms a
// timer per Reserved booking, charges payments and releases seats whose
// deadline passes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/internal/clock"
	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/service/booking"
)

var paymentDeclines = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bookings_payment_declined_total",
	Help: "The total number of declined payment attempts",
})

const expireTimeout = 10 * time.Second

type PaymentResult struct {
	Booking  *domain.Booking `json:"booking"`
	Approved bool            `json:"approved"`
	Reason   string          `json:"reason,omitempty"`
}

type timerEntry struct {
	timer *clock.Timer
}

type Controller struct {
	ledger  booking.BookingUseCase
	gateway PaymentGateway
	clock   clock.Clock
	log     *zap.Logger

	mu       sync.Mutex
	timers   map[string]*timerEntry
	onExpire func(pnr string)
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithOnExpire registers a hook called once for every reservation this
// controller sees expire.
func WithOnExpire(fn func(pnr string)) Option {
	return func(ctl *Controller) { ctl.onExpire = fn }
}

func NewController(ledger booking.BookingUseCase, gateway PaymentGateway, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		ledger:  ledger,
		gateway: gateway,
		clock:   clock.Real(),
		log:     log.Named("lifecycle"),
		timers:  make(map[string]*timerEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Reserve(ctx context.Context, in booking.ReserveInput) (*domain.Booking, error) {
	b, err := c.ledger.Reserve(ctx, in)
	if err != nil {
		return nil, err
	}
	c.arm(b.PNR, b.ExpiresAt)
	return b, nil
}

// Pay charges the booking and confirms it when approved. A declined charge
// leaves the booking Reserved with its deadline still running.
func (c *Controller) Pay(ctx context.Context, pnr string) (*PaymentResult, error) {
	b, err := c.Get(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingStatusConfirmed {
		return &PaymentResult{Booking: b, Approved: true}, nil
	}

	outcome, err := c.gateway.Charge(ctx, *b)
	if err != nil {
		return nil, fmt.Errorf("charge %s: %w", pnr, err)
	}
	if !outcome.Approved {
		paymentDeclines.Inc()
		c.log.Info("payment declined", zap.String("pnr", pnr), zap.String("reason", outcome.Reason))
		return &PaymentResult{Booking: b, Approved: false, Reason: outcome.Reason}, nil
	}

	confirmed, err := c.ledger.ConfirmPayment(ctx, pnr)
	if err != nil {
		c.checkExpired(pnr, err)
		return nil, err
	}
	c.disarm(pnr)
	return &PaymentResult{Booking: confirmed, Approved: true}, nil
}

func (c *Controller) Cancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	c.disarm(pnr)
	b, err := c.ledger.Cancel(ctx, pnr)
	c.checkExpired(pnr, err)
	return b, err
}

func (c *Controller) Get(ctx context.Context, pnr string) (*domain.Booking, error) {
	b, err := c.ledger.GetByPNR(ctx, pnr)
	c.checkExpired(pnr, err)
	return b, err
}

func (c *Controller) Receipt(ctx context.Context, pnr string) (*domain.Receipt, error) {
	r, err := c.ledger.Receipt(ctx, pnr)
	c.checkExpired(pnr, err)
	return r, err
}

// List sweeps overdue reservations before listing, so their timers are
// disarmed and the expiry hook runs exactly as if the timer had fired.
func (c *Controller) List(ctx context.Context) ([]domain.Booking, error) {
	expired, err := c.ledger.ExpireDue(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range expired {
		c.disarm(b.PNR)
		c.notifyExpired(b.PNR)
	}
	return c.ledger.List(ctx)
}

// Resume expires reservations that went overdue while no timer was running
// and arms timers for the rest.
func (c *Controller) Resume(ctx context.Context) error {
	expired, err := c.ledger.ExpireDue(ctx)
	if err != nil {
		return err
	}
	for _, b := range expired {
		c.notifyExpired(b.PNR)
	}

	live, err := c.ledger.List(ctx)
	if err != nil {
		return err
	}
	var armed int
	for _, b := range live {
		if b.Status == domain.BookingStatusReserved {
			c.arm(b.PNR, b.ExpiresAt)
			armed++
		}
	}
	c.log.Info("resumed reservations", zap.Int("expired", len(expired)), zap.Int("armed", armed))
	return nil
}

// Stop disarms every pending timer.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pnr, e := range c.timers {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.timers, pnr)
	}
}

// Armed reports whether an expiry timer is pending for pnr.
func (c *Controller) Armed(pnr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[pnr]
	return ok
}

func (c *Controller) arm(pnr string, deadline time.Time) {
	e := &timerEntry{}

	c.mu.Lock()
	if old, ok := c.timers[pnr]; ok && old.timer != nil {
		old.timer.Stop()
	}
	c.timers[pnr] = e
	c.mu.Unlock()

	// The fake clock may run fire synchronously, so the lock is not held here.
	t := c.clock.AfterFunc(deadline.Sub(c.clock.Now()), func() { c.fire(pnr, e) })

	c.mu.Lock()
	e.timer = t
	c.mu.Unlock()
}

func (c *Controller) disarm(pnr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.timers[pnr]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.timers, pnr)
	}
}

func (c *Controller) fire(pnr string, e *timerEntry) {
	c.mu.Lock()
	if c.timers[pnr] != e {
		c.mu.Unlock()
		return
	}
	delete(c.timers, pnr)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	fired, err := c.ledger.Expire(ctx, pnr)
	if err != nil {
		c.log.Error("expire reservation failed", zap.String("pnr", pnr), zap.Error(err))
		return
	}
	if fired {
		c.notifyExpired(pnr)
		return
	}

	// Not expired: already gone, or the stored deadline is still ahead.
	b, err := c.ledger.GetByPNR(ctx, pnr)
	switch {
	case errors.Is(err, domain.ErrReservationExpired):
		c.notifyExpired(pnr)
	case err == nil && b.Status == domain.BookingStatusReserved:
		c.arm(pnr, b.ExpiresAt)
	}
}

func (c *Controller) checkExpired(pnr string, err error) {
	if errors.Is(err, domain.ErrReservationExpired) {
		c.disarm(pnr)
		c.notifyExpired(pnr)
	}
}

func (c *Controller) notifyExpired(pnr string) {
	c.log.Info("reservation expired", zap.String("pnr", pnr))
	if c.onExpire != nil {
		c.onExpire(pnr)
	}
}
