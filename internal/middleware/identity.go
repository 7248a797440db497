package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys shared with the handlers.
const (
	ContextUserID  = "user_id"
	contextTokenID = "token_user_id"
)

// Identity headers.  Booking routes distinguish the requester from the
// owner; the catalog routes use a plain user header.
const (
	HeaderRequester = "requester-id"
	HeaderOwner     = "owner-id"
	HeaderUser      = "user-id"
)

// UserHeader reads the numeric user id from header name and stores it in
// the context under ContextUserID.  When JWTAuth already authenticated the
// caller the header is optional, but if present it must name the same user.
func UserHeader(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenID, authenticated := c.Get(contextTokenID).(uint64)
			raw := strings.TrimSpace(c.Request().Header.Get(name))

			if raw == "" {
				if !authenticated {
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing header " + name})
				}
				c.Set(ContextUserID, tokenID)
				return next(c)
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid header " + name})
			}
			if authenticated && id != tokenID {
				return c.JSON(http.StatusForbidden, echo.Map{"error": name + " does not match the bearer token"})
			}
			c.Set(ContextUserID, id)
			return next(c)
		}
	}
}

// currentUserID identifies the caller for rate limiting.  Group level
// middleware runs before UserHeader, so the identity headers are read
// directly when nothing was put in the context yet.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(ContextUserID).(uint64); ok {
		return strconv.FormatUint(id, 10)
	}
	if id, ok := c.Get(contextTokenID).(uint64); ok {
		return strconv.FormatUint(id, 10)
	}
	h := c.Request().Header
	for _, name := range []string{HeaderRequester, HeaderOwner, HeaderUser} {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			if _, err := strconv.ParseUint(v, 10, 64); err == nil {
				return v
			}
		}
	}
	return "anon"
}
