package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type OrderResponse struct {
	ID             string  `json:"id"`
	BookID         string  `json:"bookId"`
	BookName       string  `json:"bookName"`
	BuyerEmail     string  `json:"buyerEmail"`
	BuyerName      string  `json:"buyerName"`
	Phone          string  `json:"phone"`
	Address        string  `json:"address"`
	LibrarianEmail string  `json:"librarianEmail"`
	Price          float64 `json:"price"`
	OrderDate      string  `json:"orderDate"`
	Status         string  `json:"status"`
	PaymentStatus  string  `json:"paymentStatus"`
	DeliveryStatus string  `json:"deliveryStatus"`
	TrackingID     string  `json:"trackingId,omitempty"`
	TransactionID  string  `json:"transactionId,omitempty"`
	PaidAt         *string `json:"paidAt,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

type CreateOrderRequest struct {
	BookID    string `json:"bookId"`
	BuyerName string `json:"buyerName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	o, err := h.svc.Create(c.Request().Context(), currentIdentity(c), service.CreateOrderInput{
		BookID:    req.BookID,
		BuyerName: req.BuyerName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *OrderHandler) Get(c echo.Context) error {
	o, err := h.svc.Get(c.Request().Context(), currentIdentity(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), currentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderList(list))
}

func (h *OrderHandler) ListForLibrarian(c echo.Context) error {
	list, err := h.svc.ListForLibrarian(c.Request().Context(), currentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderList(list))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	o, err := h.svc.Cancel(c.Request().Context(), currentIdentity(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) UpdateDelivery(c echo.Context) error {
	var req struct {
		DeliveryStatus string `json:"deliveryStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	o, err := h.svc.UpdateDelivery(c.Request().Context(), currentIdentity(c), c.Param("id"), model.DeliveryStatus(req.DeliveryStatus))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func toOrderList(list []model.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return resp
}

func toOrderResponse(o *model.Order) OrderResponse {
	var paidAt *string
	if o.PaidAt != nil {
		val := o.PaidAt.Format(time.RFC3339)
		paidAt = &val
	}
	return OrderResponse{
		ID:             o.ID,
		BookID:         o.BookID,
		BookName:       o.BookName,
		BuyerEmail:     o.BuyerEmail,
		BuyerName:      o.BuyerName,
		Phone:          o.Phone,
		Address:        o.Address,
		LibrarianEmail: o.LibrarianEmail,
		Price:          o.Price,
		OrderDate:      o.OrderDate.Format(time.RFC3339),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		DeliveryStatus: string(o.DeliveryStatus),
		TrackingID:     o.TrackingID,
		TransactionID:  o.TransactionID,
		PaidAt:         paidAt,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}
