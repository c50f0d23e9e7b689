package tests

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sakashimaa/eventhub/services/inventory/internal/repository"
	"github.com/sakashimaa/eventhub/services/inventory/internal/service"
)

func (s *IntegrationTestSuite) TestDecrementQuota_Success() {
	eventID := s.seedEvent("Rock Night", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "GA", 1500, 10)

	quota, err := s.InventoryService.DecrementQuota(s.Ctx, ttID, 3)
	s.Require().NoError(err)
	s.Require().Equal(int64(7), quota)
	s.Require().Equal(int64(7), s.quotaOf(ttID))
}

func (s *IntegrationTestSuite) TestDecrementQuota_Insufficient() {
	eventID := s.seedEvent("Rock Night", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "VIP", 5000, 2)

	_, err := s.InventoryService.DecrementQuota(s.Ctx, ttID, 3)
	s.Require().ErrorIs(err, repository.ErrInsufficientQuota)
	s.Require().Equal(int64(2), s.quotaOf(ttID))
}

func (s *IntegrationTestSuite) TestDecrementQuota_UnknownTicketType() {
	_, err := s.InventoryService.DecrementQuota(s.Ctx, 424242, 1)
	s.Require().ErrorIs(err, repository.ErrTicketTypeNotFound)
}

func (s *IntegrationTestSuite) TestDecrementQuota_RejectsNonPositive() {
	_, err := s.InventoryService.DecrementQuota(s.Ctx, 1, 0)
	s.Require().ErrorIs(err, service.ErrInvalidQuantity)
}

func (s *IntegrationTestSuite) TestDecrementQuota_ConcurrentNeverNegative() {
	eventID := s.seedEvent("Sold Out Show", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "GA", 1000, 10)

	const workers = 25

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
		unexpected   []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.InventoryService.DecrementQuota(s.Ctx, ttID, 1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, repository.ErrInsufficientQuota):
				insufficient++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	s.Require().Empty(unexpected)
	s.Require().Equal(10, succeeded)
	s.Require().Equal(workers-10, insufficient)
	s.Require().Equal(int64(0), s.quotaOf(ttID))
}

func (s *IntegrationTestSuite) TestIncrementQuota_Compensates() {
	eventID := s.seedEvent("Jazz", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "GA", 1000, 5)

	_, err := s.InventoryService.DecrementQuota(s.Ctx, ttID, 5)
	s.Require().NoError(err)

	quota, err := s.InventoryService.IncrementQuota(s.Ctx, ttID, 2)
	s.Require().NoError(err)
	s.Require().Equal(int64(2), quota)
}

func (s *IntegrationTestSuite) TestCachedGetTicketType_InvalidatedOnDecrement() {
	eventID := s.seedEvent("Jazz", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "GA", 1000, 5)
	key := fmt.Sprintf("ticket_type:%d", ttID)

	tt, err := s.CachedInventoryService.GetTicketType(s.Ctx, ttID)
	s.Require().NoError(err)
	s.Require().Equal(int64(5), tt.Quota)

	val, err := s.RedisInternalClient.Get(s.Ctx, key).Result()
	s.Require().NoError(err)
	s.Require().NotEmpty(val)

	_, err = s.CachedInventoryService.DecrementQuota(s.Ctx, ttID, 1)
	s.Require().NoError(err)

	exists, err := s.RedisInternalClient.Exists(s.Ctx, key).Result()
	s.Require().NoError(err)
	s.Require().Zero(exists)

	tt, err = s.CachedInventoryService.GetTicketType(s.Ctx, ttID)
	s.Require().NoError(err)
	s.Require().Equal(int64(4), tt.Quota)
}
