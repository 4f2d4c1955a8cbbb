package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	offersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, offersTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		offersTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, offersTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, offersTTL: offersTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// AcquireBookingLock claims the passenger/flight/date slot for ttl. It returns
// false when another create attempt already holds it.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, email, flightNumber string, departureDate time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, bookingLockKey(email, flightNumber, departureDate), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, email, flightNumber string, departureDate time.Time) error {
	return c.client.Del(ctx, bookingLockKey(email, flightNumber, departureDate)).Err()
}

// GetOffers returns cached offers for req. A miss is (nil, false, nil).
func (c *RedisCache) GetOffers(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, bool, error) {
	data, err := c.client.Get(ctx, offersKey(req)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var offers []domain.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, false, err
	}
	return offers, true, nil
}

func (c *RedisCache) SetOffers(ctx context.Context, req domain.SearchRequest, offers []domain.Offer) error {
	if c.offersTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, offersKey(req), payload, c.offersTTL).Err()
}

func bookingLockKey(email, flightNumber string, departureDate time.Time) string {
	return fmt.Sprintf("lock:booking:%s:%s:%s", strings.ToLower(email), flightNumber, departureDate.Format(domain.DateLayout))
}

func offersKey(req domain.SearchRequest) string {
	ret := "-"
	if req.ReturnDate != nil {
		ret = req.ReturnDate.Format(domain.DateLayout)
	}
	return fmt.Sprintf("cache:offers:%s:%s:%s:%s:%s:%d:%d:%d",
		req.Provider, req.Origin, req.Destination, req.DepartureDate.Format(domain.DateLayout), ret,
		req.Adults, req.Children, req.Infants)
}
