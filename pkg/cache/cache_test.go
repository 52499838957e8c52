// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phaser-svc/phaser/pkg/cache"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k1", []byte("payload"), time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := cache.NewMemoryCache()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k1", []byte("payload"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k1", []byte("payload"), 0))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "k2", []byte("b"), time.Minute))

	require.NoError(t, c.Delete(ctx, "k1"))
	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "k2")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestDiskCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewDiskCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "step-key", []byte("step output"), time.Minute))

	got, err := c.Get(ctx, "step-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("step output"), got)
}

func TestDiskCachePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := cache.NewDiskCache(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k1", []byte("kept"), time.Hour))

	second, err := cache.NewDiskCache(dir)
	require.NoError(t, err)

	got, err := second.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}

func TestDiskCacheMiss(t *testing.T) {
	c, err := cache.NewDiskCache(t.TempDir())
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestDiskCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewDiskCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("payload"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	// The expired file is gone as well
	entries, readErr := os.ReadDir(c.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDiskCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := cache.NewDiskCache(dir)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("payload"), time.Minute))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{not json"), 0o644))

	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestDiskCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewDiskCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k1", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "k2", []byte("b"), time.Minute))

	require.NoError(t, c.Delete(ctx, "k1"))
	require.NoError(t, c.Delete(ctx, "k1")) // Deleting twice is fine
	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "k2")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestKeyDeterministic(t *testing.T) {
	assert.Equal(t, cache.Key("a", "b", "c"), cache.Key("a", "b", "c"))
	assert.NotEqual(t, cache.Key("a", "b"), cache.Key("b", "a"))
}

func TestKeyFraming(t *testing.T) {
	// Concatenation must not collide across part boundaries
	assert.NotEqual(t, cache.Key("ab", "c"), cache.Key("a", "bc"))
	assert.NotEqual(t, cache.Key("abc"), cache.Key("ab", "c"))
}
