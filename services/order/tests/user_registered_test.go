package tests

import (
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

func (s *IntegrationTestSuite) TestUserRegistered_Success() {
	event := &generalDomain.UserRegisteredEvent{UserID: 1, Email: "test@example.com"}

	s.Require().NoError(s.OrderService.HandleUserRegistered(s.Ctx, event))
	s.Require().NoError(s.OrderService.HandleUserRegistered(s.Ctx, event))

	var email string
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT email FROM users WHERE id = $1`, 1).Scan(&email))
	s.Require().Equal("test@example.com", email)
}

func (s *IntegrationTestSuite) TestUserRegisteredValidation_Failure() {
	tests := []struct {
		name   string
		userID int64
		email  string
	}{
		{"Invalid ID", 0, "valid@example.com"},
		{"Invalid email", 999, ""},
		{"Both Invalid", 0, ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.OrderService.HandleUserRegistered(s.Ctx, &generalDomain.UserRegisteredEvent{
				UserID: tt.userID,
				Email:  tt.email,
			})
			s.Require().ErrorIs(err, service.ErrInvalidRequest)
		})
	}
}

func (s *IntegrationTestSuite) TestOrderDetail_IncludesEmail() {
	order := s.createPaidOrder()

	detail, err := s.OrderService.OrderDetail(s.Ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Equal("buyer@example.com", detail.UserEmail)
	s.Require().Equal(domain.OrderStatusPaid, detail.Status)

	sold, err := s.OrderService.SoldCount(s.Ctx, testEventID, gaTypeID)
	s.Require().NoError(err)
	s.Require().Equal(int64(2), sold)
}
