package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/service"
)

type SubmissionHandler struct {
	svc service.SubmissionService
}

func NewSubmissionHandler(svc service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

type NewBookResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	Image          string  `json:"image"`
	Price          float64 `json:"price"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	LibrarianEmail string  `json:"librarianEmail"`
	Status         string  `json:"status"`
	BookID         string  `json:"bookId,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

func (h *SubmissionHandler) Submit(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	nb, err := h.svc.Submit(c.Request().Context(), currentIdentity(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toNewBookResponse(nb))
}

func (h *SubmissionHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), currentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]NewBookResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toNewBookResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *SubmissionHandler) Review(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	nb, err := h.svc.Review(c.Request().Context(), currentIdentity(c), c.Param("id"), model.NewBookStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toNewBookResponse(nb))
}

func (h *SubmissionHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), currentIdentity(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SubmissionHandler) DraftBlurb(c echo.Context) error {
	text, err := h.svc.DraftBlurb(c.Request().Context(), currentIdentity(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"description": text})
}

func toNewBookResponse(nb *model.NewBook) NewBookResponse {
	return NewBookResponse{
		ID:             nb.ID,
		Title:          nb.Title,
		Author:         nb.Author,
		Image:          nb.Image,
		Price:          nb.Price,
		Category:       nb.Category,
		Description:    nb.Description,
		LibrarianEmail: nb.LibrarianEmail,
		Status:         string(nb.Status),
		BookID:         nb.BookID,
		CreatedAt:      nb.CreatedAt.Format(time.RFC3339),
	}
}
