// Package kv holds the key-value storage contracts the guard persists through:
// a durable store for settings and audit data, and a session store whose data
// does not outlive the browsing session.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("key not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageTransient   = errors.New("storage transient error")
	ErrTimeout            = errors.New("storage timeout")
)

// Store is an asynchronous-by-context key-value store. Get returns ErrNotFound
// for missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Keys of the durable store.
const (
	KeySiteConfiguration = "siteConfiguration"
	KeyLegacySettings    = "settings"
	KeyBypassReasons     = "bypassReasons"
	KeyTrackingStats     = "extensionTracking"
)

// GetJSON decodes key into v. It reports false when the key is missing.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// transient marks err as retryable while keeping the original message.
func transient(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageTransient, err)
}
