package tests

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/repository"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
)

func (s *IntegrationTestSuite) TestRefund_OnceWithFee() {
	res := s.charge(20, 2500, "CREDIT_CARD")

	req := domain.RefundRequest{OrderID: 20, Amount: 2250, Reason: "customer cancellation"}
	first, err := s.PaymentService.Refund(s.Ctx, req)
	s.Require().NoError(err)
	s.Require().Equal("REF-"+res.TransactionID, first.TransactionID)
	s.Require().Equal(int64(2250), first.Amount)

	second, err := s.PaymentService.Refund(s.Ctx, req)
	s.Require().NoError(err)
	s.Require().Equal(first, second)

	var n int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM refunds`).Scan(&n))
	s.Require().Equal(1, n)

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 20)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusRefunded, payment.Status)
}

func (s *IntegrationTestSuite) TestRefund_GoesThroughOriginalProvider() {
	res := s.charge(21, 4000, "STRIPE")
	s.Stripe.completion = &domain.Completion{TransactionID: res.TransactionID, Status: domain.StatusSuccess}
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))

	_, err := s.PaymentService.Refund(s.Ctx, domain.RefundRequest{OrderID: 21, Amount: 4000})
	s.Require().NoError(err)
	s.Require().Equal(1, s.Stripe.refunds)
}

func (s *IntegrationTestSuite) settleStripe(orderID, amount int64) *domain.ChargeResult {
	res := s.charge(orderID, amount, "STRIPE")
	s.Stripe.completion = &domain.Completion{TransactionID: res.TransactionID, Status: domain.StatusSuccess}
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))

	return res
}

func (s *IntegrationTestSuite) refundRow(orderID int64) (status, reference string, amount int64) {
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `
		SELECT r.status, r.provider_reference, r.amount
		FROM refunds r JOIN payments p ON p.id = r.payment_id
		WHERE p.order_id = $1`, orderID,
	).Scan(&status, &reference, &amount))

	return status, reference, amount
}

func (s *IntegrationTestSuite) TestRefund_ProviderCalledWithoutPaymentLock() {
	s.settleStripe(24, 3000)

	var lockErr error
	s.Stripe.onRefund = func(p *domain.Payment) {
		lockErr = pgx.BeginFunc(s.Ctx, s.DbPool, func(tx pgx.Tx) error {
			_, err := tx.Exec(s.Ctx, `SELECT id FROM payments WHERE id = $1 FOR UPDATE NOWAIT`, p.ID)
			return err
		})
	}

	_, err := s.PaymentService.Refund(s.Ctx, domain.RefundRequest{OrderID: 24, Amount: 3000})
	s.Require().NoError(err)
	s.Require().NoError(lockErr)

	status, reference, _ := s.refundRow(24)
	s.Require().Equal(string(domain.RefundCompleted), status)
	s.Require().Equal("re_"+intentID(24), reference)
}

func (s *IntegrationTestSuite) TestRefund_ProviderFailureKeepsPendingIntent() {
	s.settleStripe(25, 3000)
	s.Stripe.refundErr = errors.New("stripe unavailable")

	_, err := s.PaymentService.Refund(s.Ctx, domain.RefundRequest{OrderID: 25, Amount: 2700})
	s.Require().Error(err)

	status, _, amount := s.refundRow(25)
	s.Require().Equal(string(domain.RefundPending), status)
	s.Require().Equal(int64(2700), amount)

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 25)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusSuccess, payment.Status)

	s.Stripe.refundErr = nil
	res, err := s.PaymentService.Refund(s.Ctx, domain.RefundRequest{OrderID: 25, Amount: 3000})
	s.Require().NoError(err)
	s.Require().Equal(int64(2700), res.Amount)
	s.Require().Equal([]int64{2700}, s.Stripe.refundAmounts)

	status, _, _ = s.refundRow(25)
	s.Require().Equal(string(domain.RefundCompleted), status)

	payment, err = s.PaymentService.GetByOrder(s.Ctx, 25)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusRefunded, payment.Status)
}

func (s *IntegrationTestSuite) TestRefund_Rejections() {
	s.charge(22, 1000, "CREDIT_CARD")
	s.charge(23, 1000, "BANK_TRANSFER")

	tests := []struct {
		name    string
		req     domain.RefundRequest
		wantErr error
	}{
		{"exceeds paid amount", domain.RefundRequest{OrderID: 22, Amount: 1001}, service.ErrRefundExceedsAmount},
		{"payment still pending", domain.RefundRequest{OrderID: 23, Amount: 500}, service.ErrNotRefundable},
		{"unknown order", domain.RefundRequest{OrderID: 99, Amount: 500}, repository.ErrPaymentNotFound},
		{"zero amount", domain.RefundRequest{OrderID: 22, Amount: 0}, service.ErrInvalidRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.PaymentService.Refund(s.Ctx, tt.req)
			s.Require().ErrorIs(err, tt.wantErr)
		})
	}

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 22)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusSuccess, payment.Status)
}
