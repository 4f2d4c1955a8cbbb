package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service  booking.BookingUseCase
	log      *zap.Logger
	location *time.Location
	now      func() time.Time
	testData bool
}

type BookingHandlerOption func(*BookingHandler)

func WithLocation(loc *time.Location) BookingHandlerOption {
	return func(h *BookingHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

func WithHandlerClock(now func() time.Time) BookingHandlerOption {
	return func(h *BookingHandler) {
		h.now = now
	}
}

// WithTestData enables POST /test-data.
func WithTestData(enabled bool) BookingHandlerOption {
	return func(h *BookingHandler) {
		h.testData = enabled
	}
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger, opts ...BookingHandlerOption) *BookingHandler {
	h := &BookingHandler{
		service:  service,
		log:      log,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/health", h.health)
	router.GET("/statistics", h.statistics)
	router.POST("/test-data", h.createTestData)
	router.GET("/search", h.searchByEmailAndName)
	router.GET("/range", h.listByDepartureRange)
	router.GET("/reference/:reference", h.getByReference)
	router.GET("/email/:email", h.listByEmail)
	router.GET("/status/:status", h.listByStatus)
	router.GET("/flight/:flight/:date", h.listByFlight)
	router.GET("/provider/:provider", h.listByProvider)
	router.PUT("/:id/cancel", h.cancel)
	router.PUT("/:id/status", h.updateStatus)
	router.GET("/:id", h.getByID)
}

func (h *BookingHandler) clock() time.Time {
	return h.now().In(h.location)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(*created, h.clock()))
}

func (h *BookingHandler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeBadRequest(c, "invalid id")
		return
	}
	b, ok, err := h.service.GetBookingByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !ok {
		writeNotFound(c, "booking "+c.Param("id")+" not found")
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(*b, h.clock()))
}

func (h *BookingHandler) getByReference(c *gin.Context) {
	reference := c.Param("reference")
	b, ok, err := h.service.GetBookingByReference(c.Request.Context(), reference)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !ok {
		writeNotFound(c, "booking "+reference+" not found")
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(*b, h.clock()))
}

func (h *BookingHandler) listByEmail(c *gin.Context) {
	items, err := h.service.GetBookingsByEmail(c.Request.Context(), c.Param("email"))
	h.writeList(c, items, err)
}

func (h *BookingHandler) searchByEmailAndName(c *gin.Context) {
	email, name := c.Query("email"), c.Query("name")
	if email == "" || name == "" {
		writeBadRequest(c, "email and name are required")
		return
	}
	items, err := h.service.GetBookingsByEmailAndName(c.Request.Context(), email, name)
	h.writeList(c, items, err)
}

func (h *BookingHandler) listByStatus(c *gin.Context) {
	status, err := domain.ParseBookingStatus(c.Param("status"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	items, err := h.service.GetBookingsByStatus(c.Request.Context(), status)
	h.writeList(c, items, err)
}

func (h *BookingHandler) listByDepartureRange(c *gin.Context) {
	from, err := domain.ParseDate(c.Query("from"))
	if err != nil {
		writeBadRequest(c, "from must be a date in YYYY-MM-DD format")
		return
	}
	to, err := domain.ParseDate(c.Query("to"))
	if err != nil {
		writeBadRequest(c, "to must be a date in YYYY-MM-DD format")
		return
	}
	items, err := h.service.GetBookingsByDateRange(c.Request.Context(), from, to)
	h.writeList(c, items, err)
}

func (h *BookingHandler) listByFlight(c *gin.Context) {
	date, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		writeBadRequest(c, "date must be in YYYY-MM-DD format")
		return
	}
	items, err := h.service.GetBookingsByFlight(c.Request.Context(), c.Param("flight"), date)
	h.writeList(c, items, err)
}

func (h *BookingHandler) listByProvider(c *gin.Context) {
	items, err := h.service.GetBookingsByProvider(c.Request.Context(), c.Param("provider"))
	h.writeList(c, items, err)
}

func (h *BookingHandler) list(c *gin.Context) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		writeBadRequest(c, "page must be an integer")
		return
	}
	size, err := queryInt(c, "size", 0)
	if err != nil {
		writeBadRequest(c, "size must be an integer")
		return
	}

	result, err := h.service.GetAllBookings(c.Request.Context(), page, size)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse{
		Content:       BookingList(result.Items, summaryView(c), h.clock()),
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.Total,
		TotalPages:    result.TotalPages(),
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(*b, h.clock()))
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	status, err := domain.ParseBookingStatus(c.Query("status"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	b, err := h.service.UpdateBookingStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(*b, h.clock()))
}

func (h *BookingHandler) statistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newStatisticsResponse(stats))
}

func (h *BookingHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"service":   "BookingService",
		"timestamp": h.clock().Format(timestampLayout),
	})
}

// createTestData books the sample KE123 ICN-LAX flight a week from today.
func (h *BookingHandler) createTestData(c *gin.Context) {
	if !h.testData {
		writeNotFound(c, "test data endpoint is disabled")
		return
	}
	input := booking.CreateBookingInput{
		FlightNumber:   "KE123",
		Origin:         "ICN",
		Destination:    "LAX",
		DepartureDate:  domain.DateOf(h.clock().AddDate(0, 0, 7)),
		DepartureTime:  domain.TimeOfDay{Hour: 14, Minute: 30},
		PassengerName:  "Test Passenger",
		PassengerEmail: "test@example.com",
		PassengerPhone: "010-1234-5678",
		Provider:       domain.DefaultProvider,
		TotalAmount:    120050,
		Currency:       "USD",
	}
	created, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":           "Test booking created",
		"booking_reference": created.Reference,
		"status":            created.Status,
	})
}

func (h *BookingHandler) writeList(c *gin.Context, items []domain.Booking, err error) {
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, BookingList(items, summaryView(c), h.clock()))
}

func summaryView(c *gin.Context) bool {
	return c.Query("view") == "summary"
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
