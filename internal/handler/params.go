package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Artem9968/shareit/internal/middleware"
	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/service"
)

const (
	defaultFrom = 0
	defaultSize = 10
)

// getUserID returns the caller id stored by middleware.UserHeader.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(middleware.ContextUserID).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, fmt.Errorf("%w: missing user id", service.ErrInvalidRequest)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrInvalidRequest, c.Param("id"))
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidRequest, name)
	}
	return n, nil
}

// pageParams reads from and size.  Range checks on size are left to the
// service; a negative from is rejected here.
func pageParams(c echo.Context) (from, size int, err error) {
	if from, err = queryInt(c, "from", defaultFrom); err != nil {
		return 0, 0, err
	}
	if from < 0 {
		return 0, 0, fmt.Errorf("%w: from must not be negative", service.ErrInvalidRequest)
	}
	if size, err = queryInt(c, "size", defaultSize); err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

// stateParam parses the state query parameter.  The message of an unknown
// value is part of the public contract.
func stateParam(c echo.Context) (model.State, error) {
	raw := c.QueryParam("state")
	st, err := model.ParseState(raw)
	if errors.Is(err, model.ErrUnknownState) {
		return "", &badRequest{msg: "Unknown state: " + raw}
	}
	return st, err
}

// badRequest is a 400 whose message is sent verbatim.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (e *badRequest) Unwrap() error { return service.ErrInvalidRequest }

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return &badRequest{msg: "invalid request body"}
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &badRequest{msg: fmt.Sprintf("field %s failed %s validation", lowerFirst(fe.Field()), fe.Tag())}
		}
		return &badRequest{msg: err.Error()}
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
