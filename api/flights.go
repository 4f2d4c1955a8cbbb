package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// simpleSearchLeadDays is how far ahead search-simple looks.
const simpleSearchLeadDays = 30

type FlightHandler struct {
	service flights.FlightUseCase
	log     *zap.Logger
	now     func() time.Time
}

func NewFlightHandler(service flights.FlightUseCase, log *zap.Logger) *FlightHandler {
	return &FlightHandler{service: service, log: log, now: time.Now}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
	router.GET("/search-simple", h.searchSimple)
	router.GET("/search-history/:provider", h.history)
	router.GET("/search-history", h.recentByRoute)
}

func (h *FlightHandler) search(c *gin.Context) {
	var req SearchFlightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}
	sr, err := req.ToDomain()
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	h.respond(c, sr)
}

func (h *FlightHandler) searchSimple(c *gin.Context) {
	origin := strings.ToUpper(c.Query("origin"))
	destination := strings.ToUpper(c.Query("destination"))
	if origin == "" || destination == "" {
		writeBadRequest(c, "origin and destination are required")
		return
	}
	provider := c.DefaultQuery("provider", domain.DefaultProvider)
	departure := h.now().AddDate(0, 0, simpleSearchLeadDays)
	h.respond(c, domain.NewSearchRequest(origin, destination, departure, strings.ToUpper(provider)))
}

// respond reports provider failures as an ERROR search body with 200; only
// malformed requests are rejected.
func (h *FlightHandler) respond(c *gin.Context, req domain.SearchRequest) {
	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSearch) {
			writeError(c, h.log, err)
			return
		}
		if req.Provider == "" {
			req.Provider = domain.DefaultProvider
		}
		resp = domain.ErrorSearchResponse(req, err, h.now())
	}
	c.JSON(http.StatusOK, NewSearchResponse(*resp))
}

func (h *FlightHandler) history(c *gin.Context) {
	hist, err := h.service.History(c.Request.Context(), c.Param("provider"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NewSearchHistoryResponse(*hist))
}

func (h *FlightHandler) recentByRoute(c *gin.Context) {
	origin, destination := c.Query("origin"), c.Query("destination")
	if origin == "" || destination == "" {
		writeBadRequest(c, "origin and destination are required")
		return
	}
	records, err := h.service.RecentByRoute(c.Request.Context(), origin, destination)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NewSearchHistoryResponse(domain.SearchHistory{
		Count:   int64(len(records)),
		Message: fmt.Sprintf("Found %d recent searches for %s → %s", len(records), strings.ToUpper(origin), strings.ToUpper(destination)),
		Recent:  records,
	}))
}
