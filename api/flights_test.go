package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/service/flights"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, q flights.SearchQuery) ([]domain.Flight, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Pricing(ctx context.Context, flightNumber string) (*flights.Quote, error) {
	args := m.Called(ctx, flightNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.Quote), args.Error(1)
}

func (m *MockFlightUseCase) FareHistory(ctx context.Context, flightNumber string, limit int) ([]domain.FareHistoryPoint, error) {
	args := m.Called(ctx, flightNumber, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FareHistoryPoint), args.Error(1)
}

func (m *MockFlightUseCase) Create(ctx context.Context, in flights.CreateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights?q=jfk&airline=Delta&sort=price-asc", nil)

	result := []domain.Flight{
		{ID: 2, FlightNumber: "DL202", Airline: "Delta", Origin: "New York (JFK)", DynamicPrice: 289.5},
	}
	query := flights.SearchQuery{Term: "jfk", Airline: "Delta", SortBy: "price-asc"}
	mockService.On("Search", c.Request.Context(), query).Return(result, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []domain.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "DL202", response[0].FlightNumber)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_list_emptyIsArray(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights?q=nowhere", nil)
	mockService.On("Search", c.Request.Context(), flights.SearchQuery{Term: "nowhere"}).Return(nil, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestFlightHandler_list_badSort(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights?sort=random", nil)
	verr := domain.NewValidationError(map[string]string{"sort": "Must be one of: price-asc"})
	mockService.On("Search", c.Request.Context(), flights.SearchQuery{SortBy: "random"}).Return(nil, verr)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"sort"`)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	flight := &domain.Flight{ID: 1, FlightNumber: "AA101", TotalSeats: 180, AvailableSeats: 45}
	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(flight, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_invalidID(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestFlightHandler_get_notFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	mockService.On("GetByID", c.Request.Context(), int64(99)).Return(nil, domain.ErrFlightNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"flight not found"}`, w.Body.String())
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	dep := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	input := flights.CreateFlightInput{
		FlightNumber:  "BA909",
		Airline:       "British Airways",
		Origin:        "London (LHR)",
		Destination:   "New York (JFK)",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(8 * time.Hour),
		TotalSeats:    200,
		BasePrice:     499,
	}
	body, _ := json.Marshal(input)
	c, w := newTestContext("POST", "/flights", body)

	mockService.On("Create", c.Request.Context(), mock.MatchedBy(func(in flights.CreateFlightInput) bool {
		return in.FlightNumber == "BA909" && in.TotalSeats == 200 && in.DepartureTime.Equal(dep)
	})).Return(&domain.Flight{ID: 7, FlightNumber: "BA909"}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_create_conflict(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("POST", "/flights", []byte(`{"flight_no":"AA101"}`))
	mockService.On("Create", c.Request.Context(), mock.Anything).Return(nil, domain.ErrConflict)

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFlightHandler_create_badJSON(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("POST", "/flights", []byte(`{`))

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlightHandler_delete(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("DELETE", "/flights/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	mockService.On("Delete", c.Request.Context(), int64(3)).Return(nil)

	handler.delete(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_pricing(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/pricing/aa101", nil)
	c.Params = gin.Params{{Key: "flightNo", Value: "aa101"}}

	quote := &flights.Quote{FlightNumber: "AA101", CurrentPrice: 324.99, BasePrice: 299.99, AvailableSeats: 45, TotalSeats: 180}
	mockService.On("Pricing", c.Request.Context(), "AA101").Return(quote, nil)

	handler.pricing(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flight_no":"AA101","current_price":324.99,"base_price":299.99,"available_seats":45,"total_seats":180}`, w.Body.String())
}

func TestFlightHandler_fareHistory(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/fare-history/ZZ000", nil)
	c.Params = gin.Params{{Key: "flightNo", Value: "ZZ000"}}
	mockService.On("FareHistory", c.Request.Context(), "ZZ000", 10).Return(nil, nil)

	handler.fareHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flight_no":"ZZ000","history":[]}`, w.Body.String())
}

func TestFlightHandler_fareHistoryLimit(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/fare-history/aa101?limit=2", nil)
	c.Params = gin.Params{{Key: "flightNo", Value: "aa101"}}
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	points := []domain.FareHistoryPoint{{Timestamp: ts, Price: 320, AvailableSeats: 45}, {Timestamp: ts.Add(time.Minute), Price: 324.99, AvailableSeats: 45}}
	mockService.On("FareHistory", c.Request.Context(), "AA101", 2).Return(points, nil)

	handler.fareHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		History []domain.FareHistoryPoint `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.History, 2)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_fareHistoryBadLimit(t *testing.T) {
	for _, raw := range []string{"0", "-3", "ten"} {
		mockService := &MockFlightUseCase{}
		handler := NewFlightHandler(mockService)

		c, w := newTestContext("GET", "/fare-history/AA101?limit="+raw, nil)
		c.Params = gin.Params{{Key: "flightNo", Value: "AA101"}}

		handler.fareHistory(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		mockService.AssertNotCalled(t, "FareHistory", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestFlightHandler_listByDate(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights?date=2026-03-03", nil)
	query := flights.SearchQuery{Date: "2026-03-03"}
	flight := domain.Flight{ID: 1, FlightNumber: "DL205"}
	mockService.On("Search", c.Request.Context(), query).Return([]domain.Flight{flight}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_internalError(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("GET", "/flights", nil)
	mockService.On("Search", c.Request.Context(), flights.SearchQuery{}).Return(nil, errors.New("connection refused"))

	handler.list(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}
