package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/service"
)

// RequestHandler serves item requests.
type RequestHandler struct {
	Requests *service.RequestService
	Log      *logrus.Logger
}

func NewRequestHandler(requests *service.RequestService, log *logrus.Logger) *RequestHandler {
	return &RequestHandler{Requests: requests, Log: log}
}

// Create handles POST /requests.
func (h *RequestHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body createItemRequestRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	r, err := h.Requests.Create(c.Request().Context(), userID, body.Description)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toItemRequestResponse(*r))
}

// Get handles GET /requests/:id.
func (h *RequestHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	d, err := h.Requests.Get(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toItemRequestDetailResponse(*d))
}

// List handles GET /requests.
func (h *RequestHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rs, err := h.Requests.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]itemRequestResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toItemRequestResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}
