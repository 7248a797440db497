package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/service"
)

// BookingHandler exposes the booking engine over HTTP.  The caller id is
// put in the context by middleware.UserHeader.
//
// Fields:
//  Bookings – the booking engine.
//  Users    – resolves booker names for responses.
//  Items    – resolves item names for responses.
//  Log      – logger for internal failures.
type BookingHandler struct {
	Bookings *service.BookingService
	Users    service.UserDirectory
	Items    service.ItemDirectory
	Log      *logrus.Logger
}

func NewBookingHandler(bookings *service.BookingService, users service.UserDirectory, items service.ItemDirectory, log *logrus.Logger) *BookingHandler {
	if bookings == nil || users == nil || items == nil || log == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Users: users, Items: items, Log: log}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body createBookingRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.Create(ctx, service.CreateBookingInput{
		ItemID: body.ItemID,
		Start:  body.Start.Time,
		End:    body.End.Time,
	}, userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(ctx, *b, h.Users, h.Items))
}

// Decide handles PATCH /bookings/:id?approved=true|false.
func (h *BookingHandler) Decide(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	approved, err := strconv.ParseBool(c.QueryParam("approved"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "approved must be true or false"})
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.Decide(ctx, id, ownerID, approved)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(ctx, *b, h.Users, h.Items))
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.Get(ctx, id, userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(ctx, *b, h.Users, h.Items))
}

// ListMine handles GET /bookings: the caller's bookings as booker.
func (h *BookingHandler) ListMine(c echo.Context) error {
	return h.list(c, h.Bookings.ListForBooker)
}

// ListOwned handles GET /bookings/owner: bookings of the caller's items.
func (h *BookingHandler) ListOwned(c echo.Context) error {
	return h.list(c, h.Bookings.ListForOwner)
}

type listFunc func(ctx context.Context, userID uint64, state model.State, from, size int) ([]model.Booking, error)

func (h *BookingHandler) list(c echo.Context, query listFunc) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	state, err := stateParam(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	from, size, err := pageParams(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	bs, err := query(ctx, userID, state, from, size)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingResponses(ctx, bs, h.Users, h.Items))
}
