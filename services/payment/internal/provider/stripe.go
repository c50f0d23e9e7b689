package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
	"github.com/stripe/stripe-go/webhook"
	"go.uber.org/zap"
)

const MethodStripe = "STRIPE"

type Stripe struct {
	api           *client.API
	webhookSecret string
	cb            *gobreaker.CircuitBreaker
}

// NewStripe builds the Stripe provider. backends may be nil for the live API.
func NewStripe(secretKey, webhookSecret string, backends *stripe.Backends, logger *zap.Logger) *Stripe {
	return &Stripe{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		cb:            utils.NewBreaker("stripe", logger, isStripeSuccessful),
	}
}

// Client-side rejections do not say anything about Stripe's health.
func isStripeSuccessful(err error) bool {
	if err == nil {
		return true
	}

	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError
}

func (s *Stripe) Name() string {
	return "stripe"
}

func (s *Stripe) Supports(method string) bool {
	return method == MethodStripe
}

func (s *Stripe) Charge(ctx context.Context, req domain.ChargeRequest) (*Result, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(req.OrderID, 10))
	params.SetIdempotencyKey(fmt.Sprintf("order-%d", req.OrderID))

	pi, err := utils.ExecuteWithBreaker(s.cb, func() (*stripe.PaymentIntent, error) {
		return s.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}

	return &Result{
		TransactionID: pi.ID,
		Status:        intentStatus(pi.Status),
	}, nil
}

func (s *Stripe) Refund(ctx context.Context, payment *domain.Payment, amount int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(payment.TransactionID),
		Amount:        stripe.Int64(amount),
	}
	params.Context = ctx
	params.SetIdempotencyKey(fmt.Sprintf("refund-order-%d", payment.OrderID))

	refund, err := utils.ExecuteWithBreaker(s.cb, func() (*stripe.Refund, error) {
		return s.api.Refunds.New(params)
	})
	if err != nil {
		return "", fmt.Errorf("stripe refund: %w", err)
	}

	return refund.ID, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*domain.Completion, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status domain.Status
	switch event.Type {
	case "payment_intent.succeeded":
		status = domain.StatusSuccess
	case "payment_intent.payment_failed", "payment_intent.canceled":
		status = domain.StatusFailed
	default:
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}

	return &domain.Completion{TransactionID: pi.ID, Status: status}, nil
}

func intentStatus(status stripe.PaymentIntentStatus) domain.Status {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.StatusSuccess
	case stripe.PaymentIntentStatusCanceled:
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}
