package client

import (
	"context"
	"fmt"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
)

// OrderClient reports payment outcomes back to the order service.
type OrderClient interface {
	PaymentCallback(ctx context.Context, orderID int64, transactionID string, status domain.Status) error
}

type orderClient struct {
	http *httpclient.Client
}

func NewOrderClient(http *httpclient.Client) OrderClient {
	return &orderClient{http: http}
}

type callbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

func (c *orderClient) PaymentCallback(ctx context.Context, orderID int64, transactionID string, status domain.Status) error {
	path := fmt.Sprintf("/api/orders/%d/payment-callback", orderID)

	return c.http.Post(ctx, path, callbackRequest{TransactionID: transactionID, Status: string(status)}, nil)
}
