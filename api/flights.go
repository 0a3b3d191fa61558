package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.list)
	router.GET("/flights/:id", h.get)
	router.POST("/flights", h.create)
	router.DELETE("/flights/:id", h.delete)
	router.GET("/pricing/:flightNo", h.pricing)
	router.GET("/fare-history/:flightNo", h.fareHistory)
}

func (h *FlightHandler) list(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), flights.SearchQuery{
		Term:    c.Query("q"),
		Airline: c.Query("airline"),
		SortBy:  c.Query("sort"),
		Date:    c.Query("date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if result == nil {
		result = []domain.Flight{}
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	flight, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) pricing(c *gin.Context) {
	quote, err := h.service.Pricing(c.Request.Context(), flightNumber(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

const defaultHistoryLimit = 10

func (h *FlightHandler) fareHistory(c *gin.Context) {
	number := flightNumber(c)
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	points, err := h.service.FareHistory(c.Request.Context(), number, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if points == nil {
		points = []domain.FareHistoryPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"flight_no": number, "history": points})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func flightNumber(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("flightNo")))
}
