package tests

import (
	"errors"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
	"github.com/sakashimaa/eventhub/services/payment/internal/repository"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
)

func (s *IntegrationTestSuite) TestConfirmSimulated_NotifiesOrderOnce() {
	res := s.charge(10, 1500, "BANK_TRANSFER")

	for i := 0; i < 2; i++ {
		payment, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, true)
		s.Require().NoError(err)
		s.Require().Equal(domain.StatusSuccess, payment.Status)
	}

	s.Require().Equal(1, s.Orders.count())
	s.Require().Equal(callback{OrderID: 10, TransactionID: res.TransactionID, Status: domain.StatusSuccess}, s.Orders.callbacks[0])
	s.Require().Equal([]string{generalDomain.EventPaymentSucceeded}, s.outboxEvents())

	_, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, false)
	s.Require().ErrorIs(err, service.ErrPaymentNotPending)
}

func (s *IntegrationTestSuite) TestConfirmSimulated_Decline() {
	res := s.charge(11, 1500, "BANK_TRANSFER")

	payment, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, false)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusFailed, payment.Status)
	s.Require().Equal([]string{generalDomain.EventPaymentFailed}, s.outboxEvents())
}

func (s *IntegrationTestSuite) TestConfirmSimulated_OrderCallbackFailureIsTolerated() {
	s.Orders.err = errors.New("order service down")
	res := s.charge(12, 1500, "BANK_TRANSFER")

	payment, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, true)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusSuccess, payment.Status)
	s.Require().Len(s.outboxEvents(), 1)
}

func (s *IntegrationTestSuite) TestVoid_BlocksLateConfirmation() {
	res := s.charge(14, 1500, "BANK_TRANSFER")

	for i := 0; i < 2; i++ {
		payment, err := s.PaymentService.Void(s.Ctx, 14)
		s.Require().NoError(err)
		s.Require().Equal(domain.StatusFailed, payment.Status)
	}

	_, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, true)
	s.Require().ErrorIs(err, service.ErrPaymentNotPending)

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 14)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusFailed, payment.Status)
	s.Require().Empty(s.outboxEvents())
	s.Require().Zero(s.Orders.count())
}

func (s *IntegrationTestSuite) TestVoid_SettledOrMissingPayment() {
	s.charge(15, 1500, "CREDIT_CARD")

	_, err := s.PaymentService.Void(s.Ctx, 15)
	s.Require().ErrorIs(err, service.ErrPaymentNotPending)

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 15)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusSuccess, payment.Status)

	_, err = s.PaymentService.Void(s.Ctx, 16)
	s.Require().ErrorIs(err, repository.ErrPaymentNotFound)
}

func (s *IntegrationTestSuite) TestConfirmSimulated_UnknownTransaction() {
	_, err := s.PaymentService.ConfirmSimulated(s.Ctx, "TX-NOPE", true)
	s.Require().ErrorIs(err, repository.ErrPaymentNotFound)
}

func (s *IntegrationTestSuite) TestStripeWebhook_SettlesIntent() {
	res := s.charge(13, 4000, "stripe")
	s.Require().Equal(domain.StatusPending, res.Status)
	s.Require().Equal(intentID(13), res.TransactionID)

	_, err := s.PaymentService.ConfirmSimulated(s.Ctx, res.TransactionID, true)
	s.Require().ErrorIs(err, service.ErrNotConfirmable)

	s.Stripe.completion = &domain.Completion{TransactionID: res.TransactionID, Status: domain.StatusSuccess}
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 13)
	s.Require().NoError(err)
	s.Require().Equal(domain.StatusSuccess, payment.Status)
	s.Require().Equal(1, s.Orders.count())
}

func (s *IntegrationTestSuite) TestStripeWebhook_RejectsAndIgnores() {
	err := s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "")
	s.Require().ErrorIs(err, provider.ErrInvalidSignature)

	s.Stripe.completion = nil
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))

	s.Stripe.completion = &domain.Completion{TransactionID: "pi_unknown", Status: domain.StatusSuccess}
	s.Require().NoError(s.PaymentService.HandleStripeWebhook(s.Ctx, []byte(`{}`), "t=1,v1=sig"))
	s.Require().Zero(s.Orders.count())
}
