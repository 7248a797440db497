// Package router registers the HTTP routes on an echo instance.
package router

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Artem9968/shareit/internal/handler"
	"github.com/Artem9968/shareit/internal/middleware"
)

// Options carries the cross-cutting middleware.  Zero values disable each
// concern.
type Options struct {
	JWTSecret string              // enables bearer tokens when set
	RateLimit echo.MiddlewareFunc // applied to all booking routes
	Cache     echo.MiddlewareFunc // applied to item search only
}

func (o Options) auth() []echo.MiddlewareFunc {
	if o.JWTSecret == "" {
		return nil
	}
	return []echo.MiddlewareFunc{middleware.JWTAuth(o.JWTSecret)}
}

// RegisterRoutes registers routes that need no identity.
func RegisterRoutes(e *echo.Echo, ping func(context.Context) error) {
	e.GET("/healthz", handler.Health(ping))
}

// RegisterBookings maps the booking endpoints.  The requester and the
// owner are identified by different headers.  /bookings/owner is static
// and wins over /bookings/:id.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, o Options) {
	mw := o.auth()
	if o.RateLimit != nil {
		mw = append(mw, o.RateLimit)
	}
	g := e.Group("/bookings", mw...)
	requester := middleware.UserHeader(middleware.HeaderRequester)
	owner := middleware.UserHeader(middleware.HeaderOwner)

	g.POST("", h.Create, requester)
	g.GET("", h.ListMine, requester)
	g.GET("/owner", h.ListOwned, owner)
	g.GET("/:id", h.Get, requester)
	g.PATCH("/:id", h.Decide, owner)
}

// RegisterItems maps the catalog endpoints.  Search is anonymous and
// cached.
func RegisterItems(e *echo.Echo, h *handler.ItemHandler, o Options) {
	search := []echo.MiddlewareFunc{}
	if o.Cache != nil {
		search = append(search, o.Cache)
	}
	e.GET("/items/search", h.Search, search...)

	g := e.Group("/items", append(o.auth(), middleware.UserHeader(middleware.HeaderUser))...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.POST("/:id/comment", h.AddComment)
}

func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	e.POST("/users", h.Create)
	e.GET("/users", h.List)
	e.GET("/users/:id", h.Get)
	e.PATCH("/users/:id", h.Update)
	e.DELETE("/users/:id", h.Delete)
}

func RegisterRequests(e *echo.Echo, h *handler.RequestHandler, o Options) {
	g := e.Group("/requests", append(o.auth(), middleware.UserHeader(middleware.HeaderUser))...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}
