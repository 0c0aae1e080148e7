// Package storage implements the two-tier key-value mirror backing widget
// state. Data written to the primary tier is replicated to the backup tier so
// it survives the primary being cleared. The mirror never returns an error to
// callers; every failure degrades to "no data available".
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/metrics"
)

// Mirror presents a single logical key-value store over two physical tiers.
// Keys are namespaced by widget instance.
type Mirror struct {
	instance string
	primary  Tier
	backup   Tier
	logger   logger.Logger
}

func NewMirror(instance string, primary, backup Tier, log logger.Logger) *Mirror {
	return &Mirror{
		instance: instance,
		primary:  primary,
		backup:   backup,
		logger: log.With(map[string]interface{}{
			"component": "storage-mirror",
			"instance":  instance,
		}),
	}
}

func (m *Mirror) scoped(key string) string {
	return m.instance + ":" + key
}

// Get reads a key into out. It reads the primary tier first; on a miss it
// falls back to the backup tier and, if found there, writes the value back
// into primary. Returns false on absence or parse failure.
func (m *Mirror) Get(ctx context.Context, key string, out interface{}) bool {
	raw, ok := m.getRaw(ctx, key)
	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		m.logger.Warn("stored value failed to parse, treating as absent", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues("primary", "parse").Inc()
		return false
	}
	return true
}

// Raw reads the serialized JSON stored under a key without decoding it.
// Used for the pass-through data bags forwarded to upstream services.
func (m *Mirror) Raw(ctx context.Context, key string) ([]byte, bool) {
	raw, ok := m.getRaw(ctx, key)
	if !ok {
		return nil, false
	}
	return []byte(raw), true
}

// Has reports whether a key holds any value in either tier.
func (m *Mirror) Has(ctx context.Context, key string) bool {
	_, ok := m.getRaw(ctx, key)
	return ok
}

// GetString reads a key as its raw serialized string.
func (m *Mirror) GetString(ctx context.Context, key string) (string, bool) {
	var s string
	if !m.Get(ctx, key, &s) {
		return "", false
	}
	return s, true
}

func (m *Mirror) getRaw(ctx context.Context, key string) (string, bool) {
	scoped := m.scoped(key)

	val, err := m.primary.Read(ctx, scoped)
	if err == nil {
		return val, true
	}
	if !errors.Is(err, ErrNotFound) {
		m.logger.Warn("primary tier read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.primary.Name(), "read").Inc()
	}

	val, err = m.backup.Read(ctx, scoped)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("backup tier read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			metrics.StorageFailures.WithLabelValues(m.backup.Name(), "read").Inc()
		}
		return "", false
	}

	// Repopulate primary so the next read is served there.
	if werr := m.primary.Write(ctx, scoped, val); werr != nil {
		m.logger.Warn("primary repopulation failed", map[string]interface{}{
			"key":   key,
			"error": werr.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.primary.Name(), "write").Inc()
	}
	metrics.StorageFallbacks.WithLabelValues(key).Inc()

	return val, true
}

// Set serializes value and writes it to both tiers. Partial failure is logged
// and swallowed; the caller's operation never fails.
func (m *Mirror) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Error("value not serializable, dropping write", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	scoped := m.scoped(key)
	if err := m.primary.Write(ctx, scoped, string(data)); err != nil {
		m.logger.Warn("primary tier write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.primary.Name(), "write").Inc()
	}
	if err := m.backup.Write(ctx, scoped, string(data)); err != nil {
		m.logger.Warn("backup tier write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.backup.Name(), "write").Inc()
	}
}

// Remove deletes a key from both tiers.
func (m *Mirror) Remove(ctx context.Context, key string) {
	scoped := m.scoped(key)
	if err := m.primary.Delete(ctx, scoped); err != nil {
		m.logger.Warn("primary tier delete failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.primary.Name(), "delete").Inc()
	}
	if err := m.backup.Delete(ctx, scoped); err != nil {
		m.logger.Warn("backup tier delete failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.StorageFailures.WithLabelValues(m.backup.Name(), "delete").Inc()
	}
}

// EnsureBackups reconciles every managed key across the two tiers: primary is
// copied to backup where backup is missing, and backup restored to primary
// where primary is missing. Idempotent; invoked once per session start.
// After it runs, both tiers hold equal values for any key that is non-empty
// in either.
func (m *Mirror) EnsureBackups(ctx context.Context) {
	for _, key := range ManagedKeys() {
		scoped := m.scoped(key)

		pval, perr := m.primary.Read(ctx, scoped)
		bval, berr := m.backup.Read(ctx, scoped)

		switch {
		case perr == nil && errors.Is(berr, ErrNotFound):
			if err := m.backup.Write(ctx, scoped, pval); err != nil {
				m.logger.Warn("backup reconciliation write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				metrics.StorageFailures.WithLabelValues(m.backup.Name(), "write").Inc()
			}
		case berr == nil && errors.Is(perr, ErrNotFound):
			if err := m.primary.Write(ctx, scoped, bval); err != nil {
				m.logger.Warn("primary reconciliation write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				metrics.StorageFailures.WithLabelValues(m.primary.Name(), "write").Inc()
			}
		case perr != nil && !errors.Is(perr, ErrNotFound):
			m.logger.Warn("primary tier unavailable during reconciliation", map[string]interface{}{
				"key":   key,
				"error": perr.Error(),
			})
		case berr != nil && !errors.Is(berr, ErrNotFound):
			m.logger.Warn("backup tier unavailable during reconciliation", map[string]interface{}{
				"key":   key,
				"error": berr.Error(),
			})
		}
	}
}
