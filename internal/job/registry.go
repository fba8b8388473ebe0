// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package job tracks active conversions and orchestrates their lifecycle.

package job

import "sync"

// Canceller is the live converter a registry entry points at.
type Canceller interface {
	Cancel() error
}

// Registry is the concurrency-safe map of active jobs. It is the sole
// authority on whether an identifier currently has a running process; a
// persisted snapshot alone says nothing about liveness.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]Canceller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Canceller)}
}

// Register claims the identifier for a job. ErrJobExists when it is already
// active; exactly one of two concurrent callers wins.
func (r *Registry) Register(id string, c Canceller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return ErrJobExists
	}
	r.jobs[id] = c
	return nil
}

// Lookup returns the active job, if any.
func (r *Registry) Lookup(id string) (Canceller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.jobs[id]
	return c, ok
}

// Unregister removes the entry; safe to call when already absent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Cancel stops the registered job and removes it. ErrNotFound when no job is
// active under the identifier. The converter's Cancel blocks until the job has
// recorded its terminal snapshot, so it runs outside the lock.
func (r *Registry) Cancel(id string) error {
	c, ok := r.Lookup(id)
	if !ok {
		return ErrNotFound
	}

	if err := c.Cancel(); err != nil {
		return err
	}
	r.Unregister(id)
	return nil
}

// Active returns the identifiers of all in-flight jobs.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}
