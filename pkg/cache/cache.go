// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package cache provides the step-result cache used by the runner.
// Entries are opaque byte payloads with a TTL; a zero TTL stores the
// entry without expiry.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the cache interface.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Entry represents a cache entry. ExpiresAt is zero for entries that
// never expire.
type Entry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// expired reports whether the entry is past its expiry at now.
func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
