package client

import (
	"context"
	"fmt"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
)

type TicketClient interface {
	CountTickets(ctx context.Context, userID, ticketTypeID int64) (int64, error)
}

type ticketClient struct {
	http *httpclient.Client
}

func NewTicketClient(http *httpclient.Client) TicketClient {
	return &ticketClient{http: http}
}

type countBody struct {
	Count int64 `json:"count"`
}

func (c *ticketClient) CountTickets(ctx context.Context, userID, ticketTypeID int64) (int64, error) {
	var out countBody
	path := fmt.Sprintf("/internal/tickets/count?user_id=%d&ticket_type_id=%d", userID, ticketTypeID)
	if err := c.http.Get(ctx, path, &out); err != nil {
		return 0, err
	}

	return out.Count, nil
}
