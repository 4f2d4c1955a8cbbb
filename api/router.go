package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the REST engine serving /api/bookings and /api/flights.
func NewRouter(log *zap.Logger, bookings *BookingHandler, flights *FlightHandler) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Tracing(), AccessLog(log))
	r.NoRoute(func(c *gin.Context) {
		writeNotFound(c, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
			newErrorResponse(c, http.StatusMethodNotAllowed, c.Request.Method+" is not supported here"))
	})

	bookings.Register(r.Group("/api/bookings"))
	flights.Register(r.Group("/api/flights"))
	return r
}
