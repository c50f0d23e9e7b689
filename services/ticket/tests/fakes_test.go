package tests

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
)

type fakeOrders struct {
	mu      sync.Mutex
	details map[int64]*domain.OrderDetail
	calls   int
}

func (f *fakeOrders) put(d *domain.OrderDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.details == nil {
		f.details = make(map[int64]*domain.OrderDetail)
	}
	f.details[d.ID] = d
}

func (f *fakeOrders) GetOrderDetail(_ context.Context, orderID int64) (*domain.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	d, ok := f.details[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
	}

	cp := *d
	return &cp, nil
}

type fakeInventory struct {
	codes map[int64]string
}

func (f *fakeInventory) TicketTypeCode(_ context.Context, id int64) (string, error) {
	code, ok := f.codes[id]
	if !ok {
		return "", fmt.Errorf("ticket type %d: %w", id, domain.ErrTicketTypeNotFound)
	}

	return code, nil
}
