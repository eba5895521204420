package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/whalefeed/whalefeed/internal/filter"
	"github.com/whalefeed/whalefeed/internal/filterregistry"

	"github.com/redis/go-redis/v9"
)

// filterRegistryKeyPrefix is the namespace prefix for all keys related to the filter registry.
const filterRegistryKeyPrefix = "filterregistry"

// filterPredicateKey is the fixed Redis key under which the active filter
// predicate is stored. There is a single predicate per deployment, so the key
// carries no variable part.
//
// Format: "filterregistry:predicate"
var filterPredicateKey = fmt.Sprintf("%s:predicate", filterRegistryKeyPrefix)

// SaveFilters persists the predicate as a JSON payload under the fixed key,
// overwriting any previous value. The key has no expiration; filters stay
// active until explicitly cleared.
func (c *client) SaveFilters(ctx context.Context, pred filter.Predicate) error {
	payload, err := json.Marshal(pred)
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, filterPredicateKey, payload, 0).Err()
}

// LoadFilters retrieves the persisted predicate.
//
// If nothing has been persisted yet, it returns filterregistry.ErrNoFiltersSaved.
// A payload that cannot be decoded is surfaced as an error; the caller decides
// how to degrade.
func (c *client) LoadFilters(ctx context.Context) (filter.Predicate, error) {
	val, err := c.conn.Get(ctx, filterPredicateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = filterregistry.ErrNoFiltersSaved
		}

		return filter.Predicate{}, err
	}

	var pred filter.Predicate
	if err := json.Unmarshal([]byte(val), &pred); err != nil {
		return filter.Predicate{}, err
	}

	return pred, nil
}

// ClearFilters removes the persisted predicate. Deleting a key that does not
// exist is not an error.
func (c *client) ClearFilters(ctx context.Context) error {
	return c.conn.Del(ctx, filterPredicateKey).Err()
}

// Compile-time assertion to ensure client implements the filterregistry.Storage interface.
var _ filterregistry.Storage = new(client)
