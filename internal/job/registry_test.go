// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanceller struct {
	mu        sync.Mutex
	cancelled bool
}

func (f *fakeCanceller) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	return nil
}

func (f *fakeCanceller) wasCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func TestRegistryRegisterConflict(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("movie", &fakeCanceller{}))
	assert.ErrorIs(t, r.Register("movie", &fakeCanceller{}), ErrJobExists)

	// 第一个任务结束后可重新注册
	r.Unregister("movie")
	assert.NoError(t, r.Register("movie", &fakeCanceller{}))
}

func TestRegistryConcurrentRegisterOneWinner(t *testing.T) {
	r := NewRegistry()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Register("movie", &fakeCanceller{})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrJobExists)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	c := &fakeCanceller{}

	_, ok := r.Lookup("movie")
	assert.False(t, ok)

	require.NoError(t, r.Register("movie", c))
	got, ok := r.Lookup("movie")
	require.True(t, ok)
	assert.Same(t, c, got.(*fakeCanceller))
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	c := &fakeCanceller{}
	require.NoError(t, r.Register("movie", c))

	require.NoError(t, r.Cancel("movie"))
	assert.True(t, c.wasCancelled())

	_, ok := r.Lookup("movie")
	assert.False(t, ok, "cancelled job removed from registry")
}

func TestRegistryCancelUnknown(t *testing.T) {
	r := NewRegistry()

	err := r.Cancel("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, r.Active())
}

func TestRegistryUnregisterAbsent(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() { r.Unregister("nope") })
}

func TestRegistryActive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", &fakeCanceller{}))
	require.NoError(t, r.Register("b", &fakeCanceller{}))

	assert.ElementsMatch(t, []string{"a", "b"}, r.Active())
}
