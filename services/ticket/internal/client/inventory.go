package client

import (
	"context"
	"fmt"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
)

type InventoryClient interface {
	TicketTypeCode(ctx context.Context, id int64) (string, error)
}

type inventoryClient struct {
	http *httpclient.Client
}

func NewInventoryClient(http *httpclient.Client) InventoryClient {
	return &inventoryClient{http: http}
}

type ticketTypeBody struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

func (c *inventoryClient) TicketTypeCode(ctx context.Context, id int64) (string, error) {
	var tt ticketTypeBody
	if err := c.http.Get(ctx, fmt.Sprintf("/internal/ticket-types/%d", id), &tt); err != nil {
		if httpclient.IsNotFound(err) {
			return "", fmt.Errorf("ticket type %d: %w", id, domain.ErrTicketTypeNotFound)
		}
		return "", err
	}

	return tt.Code, nil
}
