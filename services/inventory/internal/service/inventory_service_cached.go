package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/inventory/internal/domain"
	"go.uber.org/zap"
)

const defaultCacheTTL = 10 * time.Minute

type cachedInventoryService struct {
	next        InventoryService
	redisClient redis.Cmdable
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewCachedInventoryService(next InventoryService, redisClient redis.Cmdable, cacheTTL time.Duration, logger *zap.Logger) InventoryService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &cachedInventoryService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func ticketTypeKey(id int64) string {
	return fmt.Sprintf("ticket_type:%d", id)
}

func (s *cachedInventoryService) GetTicketType(ctx context.Context, id int64) (*domain.TicketType, error) {
	key := ticketTypeKey(id)

	val, err := s.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tt domain.TicketType
		if err := json.Unmarshal(val, &tt); err == nil {
			return &tt, nil
		}
		mylogger.Warn(ctx, s.logger, "Dropping corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		mylogger.Warn(ctx, s.logger, "Cache read failed", zap.String("key", key), zap.Error(err))
	}

	tt, err := s.next.GetTicketType(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tt); err == nil {
		if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			mylogger.Warn(ctx, s.logger, "Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return tt, nil
}

func (s *cachedInventoryService) DecrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	quota, err := s.next.DecrementQuota(ctx, id, quantity)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, id)
	return quota, nil
}

func (s *cachedInventoryService) IncrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	quota, err := s.next.IncrementQuota(ctx, id, quantity)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, id)
	return quota, nil
}

func (s *cachedInventoryService) ValidateDiscount(ctx context.Context, eventID int64, code string) (*domain.Discount, error) {
	return s.next.ValidateDiscount(ctx, eventID, code)
}

func (s *cachedInventoryService) IncrementDiscountUsage(ctx context.Context, id int64) (*domain.Discount, error) {
	return s.next.IncrementDiscountUsage(ctx, id)
}

func (s *cachedInventoryService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return s.next.GetEvent(ctx, id)
}

func (s *cachedInventoryService) RestoreQuota(ctx context.Context, event *generalDomain.OrderCancelledEvent) ([]domain.QuotaChange, error) {
	changes, err := s.next.RestoreQuota(ctx, event)
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		s.invalidate(ctx, c.TicketTypeID)
	}

	return changes, nil
}

func (s *cachedInventoryService) invalidate(ctx context.Context, id int64) {
	if err := s.redisClient.Del(ctx, ticketTypeKey(id)).Err(); err != nil {
		mylogger.Warn(ctx, s.logger, "Cache invalidation failed", zap.Int64("ticket_type_id", id), zap.Error(err))
	}
}
