package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
)

const nameCacheKeyPrefix = "property-name:"

// PropertyNames resolves property display names through a short-TTL cache in
// front of the Admin API. Lookup failures degrade to the raw identifier at
// assembly time, so Resolve only ever returns a name or an empty string.
type PropertyNames struct {
	resolver analytics.NameResolver
	cache    Cache
	logger   *zap.Logger
	ttl      time.Duration
	retry    retryPolicy
}

// NewPropertyNames constructs the cached resolver.
func NewPropertyNames(resolver analytics.NameResolver, cache Cache, logger *zap.Logger, ttl time.Duration) *PropertyNames {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PropertyNames{
		resolver: resolver,
		cache:    cache,
		logger:   logger.Named("property_names"),
		ttl:      ttl,
		retry:    defaultRetryPolicy(),
	}
}

// Resolve returns the property's display name, or "" when it cannot be found.
func (n *PropertyNames) Resolve(ctx context.Context, credential, propertyID string) string {
	key := nameCacheKeyPrefix + propertyID

	if n.cache != nil {
		var cached string
		err := n.retry.run(ctx, n.logger, "cache.get.property_name", propertyID, func() error {
			value, err := n.cache.Get(ctx, key)
			if err != nil {
				return err
			}
			cached = value
			return nil
		})
		if err == nil && cached != "" {
			return cached
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			n.logger.Warn("property name cache read failed", zap.Error(err), zap.String("property_id", propertyID))
		}
	}

	name, err := n.resolver.DisplayName(ctx, credential, propertyID)
	if err != nil {
		n.logger.Warn("display name lookup failed", zap.Error(err), zap.String("property_id", propertyID))
		return ""
	}
	if name == "" {
		return ""
	}

	if n.cache != nil {
		if err := n.retry.run(ctx, n.logger, "cache.set.property_name", propertyID, func() error {
			return n.cache.Set(ctx, key, name, n.ttl)
		}); err != nil {
			n.logger.Warn("property name cache write failed", zap.Error(err), zap.String("property_id", propertyID))
		}
	}
	return name
}
