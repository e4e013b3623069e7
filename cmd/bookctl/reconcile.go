package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/service"
	"github.com/shinyyama/book-courier-backend/internal/tracking"
	"github.com/spf13/cobra"
)

type reconcileReport struct {
	SessionID        string `json:"sessionId"`
	Paid             bool   `json:"paid"`
	PaymentStatus    string `json:"paymentStatus,omitempty"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	TrackingID       string `json:"trackingId,omitempty"`
	TransactionID    string `json:"transactionId,omitempty"`
	OrderID          string `json:"orderId,omitempty"`
}

func newReconcileReport(sessionID string, res *service.ConfirmResult) reconcileReport {
	r := reconcileReport{
		SessionID:        sessionID,
		Paid:             res.Paid,
		PaymentStatus:    res.PaymentStatus,
		AlreadyProcessed: res.AlreadyProcessed,
		TrackingID:       res.TrackingID,
		TransactionID:    res.TransactionID,
	}
	if res.Order != nil {
		r.OrderID = res.Order.ID
	}
	return r
}

// reconcileCmd replays the confirm step for sessions whose browser redirect never
// reached the API. It is safe to run repeatedly for the same session.
func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [session-id...]",
		Short: "Confirm checkout sessions against the payment provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, st, err := loadStore(ctx)
			if err != nil {
				return err
			}
			defer st.close()
			if cfg.StripeSecretKey == "" {
				return fmt.Errorf("STRIPE_SECRET_KEY is not set")
			}

			payments := service.NewPaymentService(
				st.repos.Orders,
				st.repos.Payments,
				checkout.NewStripeProvider(cfg.StripeSecretKey, nil),
				tracking.NewGenerator(),
				service.PaymentConfig{Currency: cfg.CheckoutCurrency, Timeout: cfg.UpstreamTimeout},
			)

			enc := json.NewEncoder(os.Stdout)
			var failed int
			for _, id := range args {
				res, err := payments.ConfirmSession(ctx, id)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
					continue
				}
				if err := enc.Encode(newReconcileReport(id, res)); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sessions failed", failed, len(args))
			}
			return nil
		},
	}
}
