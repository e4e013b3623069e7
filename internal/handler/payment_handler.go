package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/service"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type PaymentResponse struct {
	ID            string  `json:"id"`
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customerEmail"`
	BookID        string  `json:"bookId"`
	BookName      string  `json:"bookName"`
	TransactionID string  `json:"transactionId"`
	PaymentStatus string  `json:"paymentStatus"`
	TrackingID    string  `json:"trackingId"`
	PaidAt        string  `json:"paidAt"`
}

const alreadyProcessedMessage = "payment already processed"

type ConfirmResponse struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message,omitempty"`
	AlreadyProcessed bool             `json:"alreadyProcessed"`
	TrackingID       string           `json:"trackingId"`
	TransactionID    string           `json:"transactionId"`
	Order            *OrderResponse   `json:"order,omitempty"`
	Payment          *PaymentResponse `json:"payment,omitempty"`
}

type CheckoutRequest struct {
	OrderID    string `json:"orderId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

func (h *PaymentHandler) CreateCheckout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.CreateCheckout(c.Request().Context(), currentIdentity(c), service.CheckoutInput{
		OrderID:    req.OrderID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": res.URL, "sessionId": res.SessionID})
}

func (h *PaymentHandler) ConfirmSession(c echo.Context) error {
	res, err := h.svc.ConfirmSession(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	if !res.Paid {
		resp := NewErrorResponse("payment_incomplete", "checkout session payment status is "+res.PaymentStatus)
		return c.JSON(http.StatusPaymentRequired, resp)
	}
	out := ConfirmResponse{
		Success:          true,
		AlreadyProcessed: res.AlreadyProcessed,
		TrackingID:       res.TrackingID,
		TransactionID:    res.TransactionID,
	}
	if res.AlreadyProcessed {
		out.Message = alreadyProcessedMessage
	}
	if res.Order != nil {
		o := toOrderResponse(res.Order)
		out.Order = &o
	}
	if res.Payment != nil {
		p := toPaymentResponse(res.Payment)
		out.Payment = &p
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), currentIdentity(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]PaymentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPaymentResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		BookID:        p.BookID,
		BookName:      p.BookName,
		TransactionID: p.TransactionID,
		PaymentStatus: p.PaymentStatus,
		TrackingID:    p.TrackingID,
		PaidAt:        p.PaidAt.Format(time.RFC3339),
	}
}
