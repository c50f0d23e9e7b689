package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
)

const (
	codeInsufficientQuota = "INSUFFICIENT_QUOTA"
	codeDiscountExhausted = "DISCOUNT_EXHAUSTED"
)

type InventoryClient interface {
	GetTicketType(ctx context.Context, id int64) (*domain.TicketTypeInfo, error)
	DecrementQuota(ctx context.Context, id, quantity int64) (int64, error)
	IncrementQuota(ctx context.Context, id, quantity int64) (int64, error)
	GetDiscount(ctx context.Context, eventID int64, code string) (*domain.Discount, error)
	IncrementDiscountUsage(ctx context.Context, id int64) error
	GetEvent(ctx context.Context, id int64) (*domain.EventPolicy, error)
}

type inventoryClient struct {
	http *httpclient.Client
}

func NewInventoryClient(http *httpclient.Client) InventoryClient {
	return &inventoryClient{http: http}
}

type quantityBody struct {
	Quantity int64 `json:"quantity"`
}

type quotaBody struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quota        int64 `json:"quota"`
}

func (c *inventoryClient) GetTicketType(ctx context.Context, id int64) (*domain.TicketTypeInfo, error) {
	var tt domain.TicketTypeInfo
	if err := c.http.Get(ctx, fmt.Sprintf("/internal/ticket-types/%d", id), &tt); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, fmt.Errorf("ticket type %d: %w", id, domain.ErrTicketTypeNotFound)
		}
		return nil, err
	}

	return &tt, nil
}

func (c *inventoryClient) DecrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	var out quotaBody
	if err := c.http.Post(ctx, fmt.Sprintf("/internal/ticket-types/%d/decrement", id), quantityBody{Quantity: quantity}, &out); err != nil {
		switch {
		case httpclient.HasCode(err, codeInsufficientQuota):
			return 0, fmt.Errorf("ticket type %d: %w", id, domain.ErrInsufficientQuota)
		case httpclient.IsNotFound(err):
			return 0, fmt.Errorf("ticket type %d: %w", id, domain.ErrTicketTypeNotFound)
		}
		return 0, err
	}

	return out.Quota, nil
}

func (c *inventoryClient) IncrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	var out quotaBody
	if err := c.http.Post(ctx, fmt.Sprintf("/internal/ticket-types/%d/increment", id), quantityBody{Quantity: quantity}, &out); err != nil {
		return 0, err
	}

	return out.Quota, nil
}

func (c *inventoryClient) GetDiscount(ctx context.Context, eventID int64, code string) (*domain.Discount, error) {
	var d domain.Discount
	path := fmt.Sprintf("/internal/events/%d/discounts/%s", eventID, url.PathEscape(code))
	if err := c.http.Get(ctx, path, &d); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, fmt.Errorf("discount %q: %w", code, domain.ErrDiscountNotFound)
		}
		return nil, err
	}

	return &d, nil
}

func (c *inventoryClient) IncrementDiscountUsage(ctx context.Context, id int64) error {
	if err := c.http.Post(ctx, fmt.Sprintf("/internal/discounts/%d/usage", id), nil, nil); err != nil {
		if httpclient.HasCode(err, codeDiscountExhausted) {
			return fmt.Errorf("discount %d: %w", id, domain.ErrDiscountExhausted)
		}
		return err
	}

	return nil
}

func (c *inventoryClient) GetEvent(ctx context.Context, id int64) (*domain.EventPolicy, error) {
	var e domain.EventPolicy
	if err := c.http.Get(ctx, fmt.Sprintf("/internal/events/%d", id), &e); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, fmt.Errorf("event %d: %w", id, domain.ErrEventNotFound)
		}
		return nil, err
	}

	return &e, nil
}
