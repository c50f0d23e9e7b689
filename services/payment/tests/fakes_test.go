package tests

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
)

type callback struct {
	OrderID       int64
	TransactionID string
	Status        domain.Status
}

type fakeOrders struct {
	mu        sync.Mutex
	callbacks []callback
	err       error
}

func (f *fakeOrders) PaymentCallback(_ context.Context, orderID int64, transactionID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callbacks = append(f.callbacks, callback{OrderID: orderID, TransactionID: transactionID, Status: status})
	return f.err
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.callbacks)
}

// fakeStripe stands in for the Stripe provider: charges stay pending under the order's
// intent id until a webhook settles them.
type fakeStripe struct {
	refunds       int
	refundAmounts []int64
	refundErr     error
	onRefund      func(payment *domain.Payment)
	completion    *domain.Completion
}

func (f *fakeStripe) Name() string { return "stripe" }

func (f *fakeStripe) Supports(method string) bool { return method == provider.MethodStripe }

func (f *fakeStripe) Charge(_ context.Context, req domain.ChargeRequest) (*provider.Result, error) {
	return &provider.Result{TransactionID: intentID(req.OrderID), Status: domain.StatusPending}, nil
}

func (f *fakeStripe) Refund(_ context.Context, payment *domain.Payment, amount int64) (string, error) {
	if f.onRefund != nil {
		f.onRefund(payment)
	}
	if f.refundErr != nil {
		return "", f.refundErr
	}

	f.refunds++
	f.refundAmounts = append(f.refundAmounts, amount)
	return "re_" + payment.TransactionID, nil
}

func (f *fakeStripe) ParseWebhook(_ []byte, signature string) (*domain.Completion, error) {
	if signature == "" {
		return nil, provider.ErrInvalidSignature
	}
	return f.completion, nil
}

func intentID(orderID int64) string {
	return fmt.Sprintf("pi_%d", orderID)
}
