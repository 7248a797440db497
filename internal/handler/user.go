package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/service"
)

type UserHandler struct {
	Users *service.UserService
	Log   *logrus.Logger
}

func NewUserHandler(users *service.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Log: log}
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	var body createUserRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	u, err := h.Users.Create(c.Request().Context(), body.Name, body.Email)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// List handles GET /users.
func (h *UserHandler) List(c echo.Context) error {
	us, err := h.Users.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]userResponse, 0, len(us))
	for i := range us {
		out = append(out, toUserResponse(&us[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body updateUserRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	u, err := h.Users.Update(c.Request().Context(), id, service.UserPatch{Name: body.Name, Email: body.Email})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusOK)
}
