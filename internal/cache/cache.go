package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
)

// Default entry lifetimes
const (
	DefaultValidationTTL = 300 * time.Second
	DefaultDraftTTL      = 1800 * time.Second
)

const (
	validationKeyPrefix = "validation:"
	draftKeyPrefix      = "draft:"
	gcInterval          = 5 * time.Minute
	gcDiscardRatio      = 0.5
)

// ErrCacheUnavailable wraps every failure of the underlying store. Callers
// treat it as an infrastructure fault, never as a cache miss.
var ErrCacheUnavailable = errors.New("cache unavailable")

// errCacheMiss is returned by get when the key is absent or expired.
var errCacheMiss = errors.New("cache miss")

// Config configures a Cache.
type Config struct {
	// Path is the directory for cache files. Ignored when InMemory is true.
	Path string

	// InMemory keeps all data in memory. Used by tests and single-node dev runs.
	InMemory bool

	// ValidationTTL is the lifetime of a cached validation result.
	// Zero means DefaultValidationTTL.
	ValidationTTL time.Duration

	// DraftTTL is the lifetime of a stored draft. Zero means DefaultDraftTTL.
	DraftTTL time.Duration
}

// Cache is a TTL key-value store for validation results and drafts.
// It is safe for concurrent use.
type Cache struct {
	db            *badger.DB
	gc            *gcRunner
	validationTTL time.Duration
	draftTTL      time.Duration
	logger        *slog.Logger
}

// Open opens a cache with cfg. The caller must Close it.
func Open(cfg Config, l *slog.Logger) (*Cache, error) {
	if l == nil {
		l = slog.Default()
	}
	l = l.With("component", "cache")

	db, err := openBadger(cfg.Path, cfg.InMemory, l)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		db:            db,
		validationTTL: cfg.ValidationTTL,
		draftTTL:      cfg.DraftTTL,
		logger:        l,
	}
	if c.validationTTL <= 0 {
		c.validationTTL = DefaultValidationTTL
	}
	if c.draftTTL <= 0 {
		c.draftTTL = DefaultDraftTTL
	}

	if !cfg.InMemory {
		c.gc = newGCRunner(db, gcInterval, gcDiscardRatio, l)
		c.gc.start()
	}

	l.Info("cache opened",
		"in_memory", cfg.InMemory,
		"path", cfg.Path,
		"validation_ttl", c.validationTTL.String(),
		"draft_ttl", c.draftTTL.String())
	return c, nil
}

// Close stops background GC and closes the database.
func (c *Cache) Close() error {
	if c.gc != nil {
		c.gc.stop()
	}
	return c.db.Close()
}

// ValidationTTL returns the lifetime used by SetCached.
func (c *Cache) ValidationTTL() time.Duration {
	return c.validationTTL
}

// GetCached returns the cached result for planID. found is false when there
// is no live entry. An entry that cannot be decoded is dropped and reported
// as a miss.
func (c *Cache) GetCached(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, bool, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	data, err := c.get(ctx, validationKey(planID))
	if errors.Is(err, errCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result domain.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Warn("dropping undecodable cached result",
			"plan_id", planID,
			"error", err)
		if delErr := c.Invalidate(ctx, planID); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, nil
	}
	return &result, true, nil
}

// SetCached stores result for planID with the configured validation TTL.
func (c *Cache) SetCached(ctx context.Context, planID uuid.UUID, result *domain.ValidationResult) error {
	return c.SetCachedWithTTL(ctx, planID, result, c.validationTTL)
}

// SetCachedWithTTL stores result for planID, replacing any previous entry.
func (c *Cache) SetCachedWithTTL(
	ctx context.Context,
	planID uuid.UUID,
	result *domain.ValidationResult,
	ttl time.Duration,
) error {
	if result == nil {
		return errors.New("cannot cache nil validation result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode validation result: %w", err)
	}
	if err := c.set(ctx, validationKey(planID), data, ttl); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, c.logger).Debug("validation result cached",
		"plan_id", planID,
		"valid", result.Valid,
		"ttl", ttl.String())
	return nil
}

// Invalidate removes the cached result for planID and replaces its
// generation stamp. Removing an absent entry is not an error.
func (c *Cache) Invalidate(ctx context.Context, planID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Blind writes only: concurrent invalidations never conflict.
	stamp := []byte(uuid.NewString())
	err := c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(validationKey(planID)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(generationKey(planID), stamp).WithTTL(generationTTL))
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("failed to invalidate cached result",
			"plan_id", planID,
			"error", err)
		return fmt.Errorf("%w: invalidate: %v", ErrCacheUnavailable, err)
	}
	logger.FromContextOrDefault(ctx, c.logger).Debug("validation result invalidated", "plan_id", planID)
	return nil
}

// GetDraft returns the stored draft for planID, if any.
func (c *Cache) GetDraft(ctx context.Context, planID uuid.UUID) (json.RawMessage, bool, error) {
	data, err := c.get(ctx, draftKey(planID))
	if errors.Is(err, errCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(data), true, nil
}

// SetDraft stores draft for planID with the draft TTL. The draft is opaque
// JSON and is never validated.
func (c *Cache) SetDraft(ctx context.Context, planID uuid.UUID, draft json.RawMessage) error {
	if !json.Valid(draft) {
		return fmt.Errorf("%w: draft is not valid JSON", domain.ErrInvalidFormat)
	}
	return c.set(ctx, draftKey(planID), draft, c.draftTTL)
}

func (c *Cache) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errCacheMiss
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("cache read failed",
			"key", string(key),
			"error", err)
		return nil, fmt.Errorf("%w: read %s: %v", ErrCacheUnavailable, key, err)
	}
	return data, nil
}

func (c *Cache) set(ctx context.Context, key, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, value).WithTTL(ttl))
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("cache write failed",
			"key", string(key),
			"error", err)
		return fmt.Errorf("%w: write %s: %v", ErrCacheUnavailable, key, err)
	}
	return nil
}

func validationKey(planID uuid.UUID) []byte {
	return []byte(validationKeyPrefix + planID.String())
}

func draftKey(planID uuid.UUID) []byte {
	return []byte(draftKeyPrefix + planID.String())
}
