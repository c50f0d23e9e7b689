package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
)

var (
	ErrUnsupportedMethod = errors.New("payment method not supported")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
)

// Result is what a provider reports for a freshly created charge.
type Result struct {
	TransactionID string
	Status        domain.Status
	PaymentURL    string
}

type Provider interface {
	Name() string
	Supports(method string) bool
	Charge(ctx context.Context, req domain.ChargeRequest) (*Result, error)
	// Refund returns the provider's reference for the refund.
	Refund(ctx context.Context, payment *domain.Payment, amount int64) (string, error)
}

// WebhookParser turns a signed provider notification into a completion.
// A nil completion with a nil error means the notification is not about a payment outcome.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*domain.Completion, error)
}

// NormalizeMethod upper-cases a method name and joins words with underscores,
// so "credit card" and "CREDIT_CARD" are the same method.
func NormalizeMethod(method string) string {
	return strings.Join(strings.Fields(strings.ToUpper(method)), "_")
}

// Registry picks the first provider supporting a method.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

func (r *Registry) For(method string) (Provider, error) {
	for _, p := range r.providers {
		if p.Supports(method) {
			return p, nil
		}
	}

	return nil, ErrUnsupportedMethod
}

func (r *Registry) ByName(name string) (Provider, error) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}

	return nil, ErrUnsupportedMethod
}
