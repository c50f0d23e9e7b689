package client

import (
	"context"
	"fmt"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
)

type OrderClient interface {
	GetOrderDetail(ctx context.Context, orderID int64) (*domain.OrderDetail, error)
}

type orderClient struct {
	http *httpclient.Client
}

func NewOrderClient(http *httpclient.Client) OrderClient {
	return &orderClient{http: http}
}

func (c *orderClient) GetOrderDetail(ctx context.Context, orderID int64) (*domain.OrderDetail, error) {
	var detail domain.OrderDetail
	if err := c.http.Get(ctx, fmt.Sprintf("/internal/orders/%d", orderID), &detail); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
		}
		return nil, err
	}

	return &detail, nil
}
