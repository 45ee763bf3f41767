// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolekta/internal/http/handlers"
	"kolekta/internal/http/middleware"
	"kolekta/internal/maps"
	"kolekta/internal/modules/location"
	"kolekta/internal/modules/route"
	"kolekta/internal/modules/session"
	"kolekta/internal/modules/zone"
)

type ServerDeps struct {
	Route      *route.Service
	Session    *session.Service
	Location   *location.Service
	Zone       *zone.Service
	Directions *maps.RouteService
	Log        *slog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Log))
	r.Use(middleware.Logging(s.deps.Log))

	sessionHandler := handlers.NewSessionHandler(s.deps.Session)
	r.POST("/api/session/login", sessionHandler.Login)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := r.Group("", middleware.Auth(s.deps.Session))
	auth.POST("/api/session/logout", sessionHandler.Logout)

	routeHandler := handlers.NewRouteHandler(s.deps.Route)
	auth.GET("/api/routes/:routeID", routeHandler.Get)
	auth.DELETE("/api/routes/:routeID", routeHandler.Close)
	auth.POST("/api/routes/:routeID/transitions", routeHandler.Transition)
	auth.POST("/api/routes/:routeID/waste", routeHandler.SaveWaste)
	auth.DELETE("/api/routes/:routeID/waste", routeHandler.DismissWaste)
	auth.POST("/api/routes/:routeID/summary", routeHandler.PostSummary)
	auth.GET("/api/terminals/:terminalID", routeHandler.TerminalEstimates)

	locationHandler := handlers.NewLocationHandler(s.deps.Location)
	auth.PUT("/api/trucks/:truckID/location", locationHandler.Update)
	auth.GET("/api/trucks/:truckID/location", locationHandler.Latest)

	zoneHandler := handlers.NewZoneHandler(s.deps.Zone)
	auth.GET("/api/zones/weekly", zoneHandler.Weekly)
	auth.POST("/api/zones/segregate", zoneHandler.Segregate)

	directionsHandler := handlers.NewDirectionsHandler(s.deps.Directions)
	auth.GET("/api/directions", directionsHandler.Get)

	return r
}
