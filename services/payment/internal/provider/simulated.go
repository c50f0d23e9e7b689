package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
)

const (
	MethodCreditCard   = "CREDIT_CARD"
	MethodPayPal       = "PAYPAL"
	MethodDeclinedCard = "DECLINED_CARD"
)

// Simulated settles card and PayPal charges at once, declines DECLINED_CARD and
// leaves every other method pending behind a confirmation URL.
type Simulated struct {
	returnURL string
	now       func() time.Time
}

func NewSimulated(returnURL string) *Simulated {
	return &Simulated{
		returnURL: strings.TrimRight(returnURL, "/"),
		now:       time.Now,
	}
}

func (s *Simulated) Name() string {
	return "simulated"
}

func (s *Simulated) Supports(method string) bool {
	return method != "" && method != MethodStripe
}

func (s *Simulated) Charge(_ context.Context, req domain.ChargeRequest) (*Result, error) {
	method := NormalizeMethod(req.Method)
	if method == "" {
		return nil, ErrUnsupportedMethod
	}

	res := &Result{
		TransactionID: fmt.Sprintf("TX-%s-%d-%d", method, s.now().UnixMilli(), req.OrderID),
	}

	switch method {
	case MethodCreditCard, MethodPayPal:
		res.Status = domain.StatusSuccess
	case MethodDeclinedCard:
		res.Status = domain.StatusFailed
	default:
		res.Status = domain.StatusPending
		res.PaymentURL = fmt.Sprintf("%s/payments/%s/confirm", s.returnURL, res.TransactionID)
	}

	return res, nil
}

func (s *Simulated) Refund(_ context.Context, payment *domain.Payment, _ int64) (string, error) {
	return "REF-" + payment.TransactionID, nil
}
