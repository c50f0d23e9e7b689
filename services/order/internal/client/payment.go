package client

import (
	"context"
	"fmt"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
)

type PaymentClient interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error)
	Refund(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error)
	// Void fails the order's pending payment. An order without a payment is not an error.
	Void(ctx context.Context, orderID int64) error
}

const codePaymentNotPending = "PAYMENT_NOT_PENDING"

type paymentClient struct {
	http *httpclient.Client
}

func NewPaymentClient(http *httpclient.Client) PaymentClient {
	return &paymentClient{http: http}
}

func (c *paymentClient) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	var out domain.ChargeResult
	if err := c.http.Post(ctx, "/internal/payments", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *paymentClient) Refund(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	var out domain.RefundResult
	if err := c.http.Post(ctx, "/internal/payments/refunds", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *paymentClient) Void(ctx context.Context, orderID int64) error {
	err := c.http.Post(ctx, fmt.Sprintf("/internal/payments/order/%d/void", orderID), nil, nil)
	switch {
	case err == nil, httpclient.IsNotFound(err):
		return nil
	case httpclient.HasCode(err, codePaymentNotPending):
		return fmt.Errorf("order %d: %w", orderID, domain.ErrPaymentSettled)
	}

	return err
}
