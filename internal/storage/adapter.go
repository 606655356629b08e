package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Adapter persists values under keys. Writes try the primary backend first
// and the fallback backend second. Reads never fail: a missing, unreadable or
// corrupt value is reported as absent.
type Adapter struct {
	primary  Backend
	fallback Backend
	codec    *Codec
	log      *zap.Logger
}

// NewAdapter builds an adapter. Either backend may be nil when it could not be opened.
func NewAdapter(primary, fallback Backend, codec *Codec, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{primary: primary, fallback: fallback, codec: codec, log: log}
}

// Codec returns the payload codec.
func (a *Adapter) Codec() *Codec {
	return a.codec
}

func (a *Adapter) backends() []Backend {
	out := make([]Backend, 0, 2)
	if a.primary != nil {
		out = append(out, a.primary)
	}
	if a.fallback != nil {
		out = append(out, a.fallback)
	}
	return out
}

// Save encodes value and writes it to the first backend that accepts it.
// ErrUnavailable means the value only lives in the caller's memory.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	data, err := a.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	if a.primary != nil {
		err := a.primary.Set(ctx, key, data)
		if err == nil {
			a.logWrite(a.primary, key, data)
			a.clearFallback(ctx, key, data)
			return nil
		}
		a.log.Warn("storage write failed, trying next backend",
			zap.String("backend", a.primary.Name()), zap.String("key", key), zap.Error(err))
	}
	if a.fallback != nil {
		err := a.fallback.Set(ctx, key, data)
		if err == nil {
			a.logWrite(a.fallback, key, data)
			return nil
		}
		a.log.Warn("storage write failed",
			zap.String("backend", a.fallback.Name()), zap.String("key", key), zap.Error(err))
	}
	a.log.Error("no storage backend accepted write; data kept in memory only", zap.String("key", key))
	return ErrUnavailable
}

func (a *Adapter) logWrite(b Backend, key string, data []byte) {
	a.log.Debug("storage write",
		zap.String("backend", b.Name()), zap.String("key", key),
		zap.Int("bytes", len(data)), zap.Bool("compressed", a.codec.Compressing()))
}

// clearFallback drops the fallback copy of key after a primary write, so a
// fallback copy is only ever newer than the primary one. A copy that cannot
// be removed is overwritten instead.
func (a *Adapter) clearFallback(ctx context.Context, key string, data []byte) {
	if a.fallback == nil {
		return
	}
	_, err := a.fallback.Delete(ctx, key)
	if err == nil {
		return
	}
	if serr := a.fallback.Set(ctx, key, data); serr != nil {
		a.log.Warn("stale fallback copy left in place",
			zap.String("backend", a.fallback.Name()), zap.String("key", key),
			zap.NamedError("delete_error", err), zap.Error(serr))
	}
}

// readOrder lists the fallback first: it only holds a key while its copy is
// newer than the primary one.
func (a *Adapter) readOrder() []Backend {
	out := make([]Backend, 0, 2)
	if a.fallback != nil {
		out = append(out, a.fallback)
	}
	if a.primary != nil {
		out = append(out, a.primary)
	}
	return out
}

// LoadRaw returns the JSON text stored under key.
func (a *Adapter) LoadRaw(ctx context.Context, key string) ([]byte, bool) {
	for _, b := range a.readOrder() {
		data, err := b.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			a.log.Warn("storage read failed, trying next backend",
				zap.String("backend", b.Name()), zap.String("key", key), zap.Error(err))
			continue
		}
		plain, err := a.codec.Plain(data)
		if err != nil {
			a.log.Warn("corrupt payload treated as absent",
				zap.String("backend", b.Name()), zap.String("key", key), zap.Error(err))
			continue
		}
		return plain, true
	}
	return nil, false
}

// Load decodes the value stored under key into dst.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	plain, ok := a.LoadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(plain, dst); err != nil {
		a.log.Warn("unparsable payload treated as absent", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes key from every backend and reports whether anything was removed.
func (a *Adapter) Delete(ctx context.Context, key string) bool {
	removed := false
	for _, b := range a.backends() {
		ok, err := b.Delete(ctx, key)
		if err != nil {
			a.log.Warn("storage delete failed",
				zap.String("backend", b.Name()), zap.String("key", key), zap.Error(err))
			continue
		}
		removed = removed || ok
	}
	return removed
}

// Entries lists every persisted entry: primary keys first, then fallback keys
// not seen yet. A key held by both carries the fallback value, as LoadRaw does.
func (a *Adapter) Entries(ctx context.Context) []RawEntry {
	var out []RawEntry
	seen := map[string]int{}
	for _, b := range a.backends() {
		entries, err := b.Entries(ctx)
		if err != nil {
			a.log.Warn("storage scan failed", zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if i, ok := seen[e.Key]; ok {
				out[i].Value = e.Value
				continue
			}
			seen[e.Key] = len(out)
			out = append(out, e)
		}
	}
	return out
}

// Keys lists every persisted key in scan order.
func (a *Adapter) Keys(ctx context.Context) []string {
	entries := a.Entries(ctx)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Close closes both backends and the codec.
func (a *Adapter) Close() error {
	var errs []error
	for _, b := range a.backends() {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", b.Name(), err))
		}
	}
	if err := a.codec.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
