package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
)

const (
	generationKeyPrefix = "gen:"

	// generationTTL outlives any computation by a wide margin. An expired
	// stamp only makes an in-flight write look stale, which is safe.
	generationTTL = 24 * time.Hour
)

var errSuperseded = errors.New("validation result superseded")

// Generation returns the plan's invalidation stamp. Every Invalidate
// replaces it, so a stamp read before a computation tells SetCachedIfCurrent
// whether the inputs changed meanwhile. It is "" when the plan was never
// invalidated.
func (c *Cache) Generation(ctx context.Context, planID uuid.UUID) (string, error) {
	data, err := c.get(ctx, generationKey(planID))
	if errors.Is(err, errCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetCachedIfCurrent stores result only while the plan's stamp still equals
// generation. stored is false when an Invalidate got there first; the
// result is then dropped rather than cached over newer data.
func (c *Cache) SetCachedIfCurrent(
	ctx context.Context,
	planID uuid.UUID,
	generation string,
	result *domain.ValidationResult,
) (stored bool, err error) {
	if result == nil {
		return false, errors.New("cannot cache nil validation result")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to encode validation result: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	// The stamp is read inside the write transaction, so a concurrent
	// Invalidate either changes what we read or aborts our commit.
	err = c.db.Update(func(txn *badger.Txn) error {
		current, err := readGeneration(txn, planID)
		if err != nil {
			return err
		}
		if current != generation {
			return errSuperseded
		}
		return txn.SetEntry(badger.NewEntry(validationKey(planID), data).WithTTL(c.validationTTL))
	})

	switch {
	case err == nil:
		log.Debug("validation result cached",
			"plan_id", planID,
			"valid", result.Valid,
			"ttl", c.validationTTL.String())
		return true, nil
	case errors.Is(err, errSuperseded), errors.Is(err, badger.ErrConflict):
		log.Debug("discarding validation result computed before invalidation",
			"plan_id", planID,
			"generation", generation)
		return false, nil
	default:
		log.Error("cache write failed", "plan_id", planID, "error", err)
		return false, fmt.Errorf("%w: write %s: %v", ErrCacheUnavailable, validationKey(planID), err)
	}
}

func readGeneration(txn *badger.Txn, planID uuid.UUID) (string, error) {
	item, err := txn.Get(generationKey(planID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	v, err := item.ValueCopy(nil)
	return string(v), err
}

func generationKey(planID uuid.UUID) []byte {
	return []byte(generationKeyPrefix + planID.String())
}
