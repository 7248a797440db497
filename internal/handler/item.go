package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/service"
)

// ItemHandler serves the catalog: items, search and comments.
type ItemHandler struct {
	Items *service.ItemService
	Log   *logrus.Logger
}

func NewItemHandler(items *service.ItemService, log *logrus.Logger) *ItemHandler {
	return &ItemHandler{Items: items, Log: log}
}

// Create handles POST /items.
func (h *ItemHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body createItemRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	it, err := h.Items.Create(c.Request().Context(), ownerID, service.ItemInput{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toItemResponse(*it))
}

// Update handles PATCH /items/:id.
func (h *ItemHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body updateItemRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	it, err := h.Items.Update(c.Request().Context(), ownerID, id, service.ItemPatch{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(*it))
}

// Get handles GET /items/:id.
func (h *ItemHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	d, err := h.Items.Get(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toItemDetailResponse(*d))
}

// List handles GET /items: the caller's own items.
func (h *ItemHandler) List(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ds, err := h.Items.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]itemResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toItemDetailResponse(d))
	}
	return c.JSON(http.StatusOK, out)
}

// Search handles GET /items/search?text=.  It needs no identity so that
// responses can be shared through the cache.
func (h *ItemHandler) Search(c echo.Context) error {
	from, size, err := pageParams(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Items.Search(c.Request().Context(), c.QueryParam("text"), from, size)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return c.JSON(http.StatusOK, out)
}

// AddComment handles POST /items/:id/comment.
func (h *ItemHandler) AddComment(c echo.Context) error {
	authorID, err := getUserID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body createCommentRequest
	if err := bind(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	cd, err := h.Items.AddComment(c.Request().Context(), id, authorID, body.Text)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toCommentResponse(*cd))
}
