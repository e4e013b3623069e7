package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/service"
)

const maxCoverBytes = 5 << 20

type BookHandler struct {
	svc service.BookService
}

func NewBookHandler(svc service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

type BookResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	Image          string  `json:"image"`
	Price          float64 `json:"price"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Quantity       int     `json:"quantity"`
	LibrarianEmail string  `json:"librarianEmail"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

type BookListResponse struct {
	Books []BookResponse `json:"books"`
	Total int64          `json:"total"`
}

type BookRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Status      string  `json:"status"`
}

func (r BookRequest) input() service.BookInput {
	return service.BookInput{
		Title:       r.Title,
		Author:      r.Author,
		Image:       r.Image,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
		Quantity:    r.Quantity,
		Status:      model.BookStatus(r.Status),
	}
}

func (h *BookHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	books, total, err := h.svc.List(c.Request().Context(), service.BookQuery{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookList(books, total))
}

func (h *BookHandler) ListMine(c echo.Context) error {
	books, err := h.svc.ListByLibrarian(c.Request().Context(), currentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookList(books, int64(len(books))))
}

func (h *BookHandler) Get(c echo.Context) error {
	b, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResponse(b))
}

func (h *BookHandler) Create(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	b, err := h.svc.Create(c.Request().Context(), currentIdentity(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookResponse(b))
}

func (h *BookHandler) Update(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	b, err := h.svc.Update(c.Request().Context(), currentIdentity(c), c.Param("id"), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResponse(b))
}

func (h *BookHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), currentIdentity(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookHandler) UploadCover(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field \"file\" is required")
	}
	if fh.Size > maxCoverBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "cover exceeds 5MB"))
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "cannot read upload")
	}
	defer f.Close()

	b, err := h.svc.UploadCover(c.Request().Context(), currentIdentity(c), c.Param("id"), fh.Header.Get("Content-Type"), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookResponse(b))
}

func toBookList(books []model.Book, total int64) BookListResponse {
	resp := BookListResponse{
		Books: make([]BookResponse, 0, len(books)),
		Total: total,
	}
	for i := range books {
		resp.Books = append(resp.Books, toBookResponse(&books[i]))
	}
	return resp
}

func toBookResponse(b *model.Book) BookResponse {
	return BookResponse{
		ID:             b.ID,
		Title:          b.Title,
		Author:         b.Author,
		Image:          b.Image,
		Price:          b.Price,
		Category:       b.Category,
		Description:    b.Description,
		Quantity:       b.Quantity,
		LibrarianEmail: b.LibrarianEmail,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
}
