package tests

import (
	"strings"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
)

func (s *IntegrationTestSuite) TestCharge_CardSettlesAtOnce() {
	res := s.charge(1, 2500, "credit card")

	s.Require().Equal(domain.StatusSuccess, res.Status)
	s.Require().True(strings.HasPrefix(res.TransactionID, "TX-CREDIT_CARD-"))
	s.Require().Empty(res.PaymentURL)
	s.Require().Equal([]string{generalDomain.EventPaymentSucceeded}, s.outboxEvents())

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Equal("simulated", payment.Provider)
	s.Require().Equal("CREDIT_CARD", payment.Method)
	s.Require().Equal("USD", payment.Currency)
	s.Require().Equal(int64(2500), payment.Amount)
}

func (s *IntegrationTestSuite) TestCharge_RepeatReturnsExistingPayment() {
	first := s.charge(2, 2500, "PAYPAL")
	second := s.charge(2, 2500, "PAYPAL")

	s.Require().Equal(first.PaymentID, second.PaymentID)
	s.Require().Equal(first.TransactionID, second.TransactionID)
	s.Require().Equal(1, s.paymentCount(2))
	s.Require().Len(s.outboxEvents(), 1)
}

func (s *IntegrationTestSuite) TestCharge_RepeatWithAnotherMethodConflicts() {
	first := s.charge(6, 2500, "BANK_TRANSFER")

	_, err := s.PaymentService.Charge(s.Ctx, domain.ChargeRequest{OrderID: 6, UserID: 1, Amount: 2500, Method: "PAYPAL"})
	s.Require().ErrorIs(err, service.ErrMethodMismatch)

	payment, err := s.PaymentService.GetByOrder(s.Ctx, 6)
	s.Require().NoError(err)
	s.Require().Equal(first.TransactionID, payment.TransactionID)
	s.Require().Equal("BANK_TRANSFER", payment.Method)
	s.Require().Equal(domain.StatusPending, payment.Status)
	s.Require().Equal(1, s.paymentCount(6))
}

func (s *IntegrationTestSuite) TestCharge_DeclinedCard() {
	res := s.charge(3, 1000, "DECLINED_CARD")

	s.Require().Equal(domain.StatusFailed, res.Status)
	s.Require().Equal([]string{generalDomain.EventPaymentFailed}, s.outboxEvents())
}

func (s *IntegrationTestSuite) TestCharge_BankTransferStaysPending() {
	res := s.charge(4, 1000, "BANK_TRANSFER")

	s.Require().Equal(domain.StatusPending, res.Status)
	s.Require().Equal("http://payments.test/payments/"+res.TransactionID+"/confirm", res.PaymentURL)
	s.Require().Empty(s.outboxEvents())
	s.Require().Zero(s.Orders.count())
}

func (s *IntegrationTestSuite) TestCharge_InvalidRequest() {
	_, err := s.PaymentService.Charge(s.Ctx, domain.ChargeRequest{OrderID: 0, Amount: 100, Method: "PAYPAL"})
	s.Require().ErrorIs(err, service.ErrInvalidRequest)

	_, err = s.PaymentService.Charge(s.Ctx, domain.ChargeRequest{OrderID: 5, Amount: -1, Method: "PAYPAL"})
	s.Require().ErrorIs(err, service.ErrInvalidRequest)

	_, err = s.PaymentService.Charge(s.Ctx, domain.ChargeRequest{OrderID: 5, Amount: 100, Method: ""})
	s.Require().ErrorIs(err, provider.ErrUnsupportedMethod)
	s.Require().Zero(s.paymentCount(5))
}
