// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"freshreceipt_backend/internal/feature/household/domain/entity"
	"freshreceipt_backend/internal/feature/household/usecase"
)

// CachingHouseholdRepository decorates a HouseholdRepository with a Redis
// cache of membership roles. Calls other than MemberRole and the membership
// mutations go straight to the inner repository.
type CachingHouseholdRepository struct {
	usecase.HouseholdRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.HouseholdRepository = (*CachingHouseholdRepository)(nil)

// NewCachingHouseholdRepository decorates inner with role caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "membership".
func NewCachingHouseholdRepository(rdb *redis.Client, ttl time.Duration, inner usecase.HouseholdRepository, namespace string) *CachingHouseholdRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "membership"
	}
	return &CachingHouseholdRepository{
		HouseholdRepository: inner,
		rdb:                 rdb,
		ttl:                 ttl,
		namespace:           namespace,
	}
}

// MemberRole checks the cache first. Only positive answers are cached, so a
// newly added member is never denied by a stale entry.
func (c *CachingHouseholdRepository) MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error) {
	if c.rdb == nil {
		return c.HouseholdRepository.MemberRole(ctx, userID, householdID)
	}

	key := c.cacheKey(householdID, userID)
	if role, err := c.rdb.Get(ctx, key).Result(); err == nil && role != "" {
		return role, nil
	}

	role, err := c.HouseholdRepository.MemberRole(ctx, userID, householdID)
	if err != nil {
		return "", err
	}
	_ = c.rdb.Set(ctx, key, role, c.ttl).Err()
	return role, nil
}

// AddMember drops any cached role of the added user.
func (c *CachingHouseholdRepository) AddMember(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error) {
	m, err := c.HouseholdRepository.AddMember(ctx, userID, householdID, email, role)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(householdID, m.UserID)).Err()
	}
	return m, nil
}

// RemoveMember drops the removed user's cached role.
func (c *CachingHouseholdRepository) RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error {
	if err := c.HouseholdRepository.RemoveMember(ctx, userID, householdID, memberUserID); err != nil {
		return err
	}
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(householdID, memberUserID)).Err()
	}
	return nil
}

// Delete drops every cached role of the household.
func (c *CachingHouseholdRepository) Delete(ctx context.Context, userID, householdID uuid.UUID) error {
	if err := c.HouseholdRepository.Delete(ctx, userID, householdID); err != nil {
		return err
	}
	if c.rdb != nil {
		_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(householdID)+"*")
	}
	return nil
}

func (c *CachingHouseholdRepository) cacheKey(householdID, userID uuid.UUID) string {
	return c.cacheKeyPrefix(householdID) + userID.String()
}

func (c *CachingHouseholdRepository) cacheKeyPrefix(householdID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", c.namespace, householdID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingHouseholdRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
