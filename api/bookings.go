package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/service/booking"
	"github.com/thotadurga2464/flight-booking/internal/service/lifecycle"
)

// BookingController is the booking surface the HTTP layer drives; the
// lifecycle controller implements it.
type BookingController interface {
	Reserve(ctx context.Context, in booking.ReserveInput) (*domain.Booking, error)
	Pay(ctx context.Context, pnr string) (*lifecycle.PaymentResult, error)
	Cancel(ctx context.Context, pnr string) (*domain.Booking, error)
	Receipt(ctx context.Context, pnr string) (*domain.Receipt, error)
	List(ctx context.Context) ([]domain.Booking, error)
}

type BookingHandler struct {
	service BookingController
}

func NewBookingHandler(service BookingController) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:pnr", h.get)
	router.POST("/bookings/:pnr/payment", h.pay)
	router.DELETE("/bookings/:pnr", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.ReserveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	receipt, err := h.service.Receipt(c.Request.Context(), pnrParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *BookingHandler) pay(c *gin.Context) {
	result, err := h.service.Pay(c.Request.Context(), pnrParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if !result.Approved {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": result.Reason, "booking": result.Booking})
		return
	}
	c.JSON(http.StatusOK, result.Booking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), pnrParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func pnrParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
}
