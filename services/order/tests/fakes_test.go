package tests

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakashimaa/eventhub/services/order/internal/domain"
)

type fakeInventory struct {
	mu          sync.Mutex
	ticketTypes map[int64]domain.TicketTypeInfo
	discounts   map[string]domain.Discount
	events      map[int64]domain.EventPolicy
	usage       map[int64]int
	decrements  map[int64]int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		ticketTypes: make(map[int64]domain.TicketTypeInfo),
		discounts:   make(map[string]domain.Discount),
		events:      make(map[int64]domain.EventPolicy),
		usage:       make(map[int64]int),
		decrements:  make(map[int64]int),
	}
}

func (f *fakeInventory) addTicketType(tt domain.TicketTypeInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketTypes[tt.ID] = tt
}

func (f *fakeInventory) addDiscount(d domain.Discount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discounts[fmt.Sprintf("%d/%s", d.EventID, d.Code)] = d
}

func (f *fakeInventory) addEvent(e domain.EventPolicy) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[e.ID] = e
}

func (f *fakeInventory) quota(id int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticketTypes[id].Quota
}

func (f *fakeInventory) GetTicketType(_ context.Context, id int64) (*domain.TicketTypeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[id]
	if !ok {
		return nil, domain.ErrTicketTypeNotFound
	}
	return &tt, nil
}

func (f *fakeInventory) DecrementQuota(_ context.Context, id, quantity int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[id]
	if !ok {
		return 0, domain.ErrTicketTypeNotFound
	}
	f.decrements[id]++
	if tt.Quota < quantity {
		return 0, domain.ErrInsufficientQuota
	}
	tt.Quota -= quantity
	f.ticketTypes[id] = tt
	return tt.Quota, nil
}

func (f *fakeInventory) IncrementQuota(_ context.Context, id, quantity int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[id]
	if !ok {
		return 0, domain.ErrTicketTypeNotFound
	}
	tt.Quota += quantity
	f.ticketTypes[id] = tt
	return tt.Quota, nil
}

func (f *fakeInventory) GetDiscount(_ context.Context, eventID int64, code string) (*domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.discounts[fmt.Sprintf("%d/%s", eventID, code)]
	if !ok {
		return nil, domain.ErrDiscountNotFound
	}
	return &d, nil
}

func (f *fakeInventory) IncrementDiscountUsage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[id]++
	return nil
}

func (f *fakeInventory) GetEvent(_ context.Context, id int64) (*domain.EventPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &e, nil
}

type fakePayments struct {
	mu      sync.Mutex
	result  domain.ChargeResult
	charges []domain.ChargeRequest
	refunds []domain.RefundRequest
	voided  []int64
	voidErr error
}

func (f *fakePayments) Charge(_ context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.charges = append(f.charges, req)
	res := f.result
	return &res, nil
}

func (f *fakePayments) Refund(_ context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refunds = append(f.refunds, req)
	return &domain.RefundResult{TransactionID: fmt.Sprintf("REF-%d", req.OrderID), Amount: req.Amount}, nil
}

func (f *fakePayments) Void(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.voidErr != nil {
		return f.voidErr
	}
	f.voided = append(f.voided, orderID)
	return nil
}

type fakeTickets struct {
	mu     sync.Mutex
	counts map[[2]int64]int64
}

func (f *fakeTickets) set(userID, ticketTypeID, n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[[2]int64{userID, ticketTypeID}] = n
}

func (f *fakeTickets) CountTickets(_ context.Context, userID, ticketTypeID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[[2]int64{userID, ticketTypeID}], nil
}
