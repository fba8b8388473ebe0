// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package events fans out job state-change notifications to live observers.

package events

import (
	"sync"

	"github.com/lithammer/shortuuid/v4"

	"github.com/elasda977/Slice-Video/internal/progress"
)

// TypeConversionComplete is broadcast on every terminal transition.
const TypeConversionComplete = "conversion_complete"

// subscriberBuffer bounds how far an observer may lag before it is dropped.
const subscriberBuffer = 8

// Event delivered to observers.
type Event struct {
	Type   string          `json:"type"`
	Job    string          `json:"job"`
	Status progress.Status `json:"status"`
}

// Broadcaster maintains the set of connected observer channels. Observers that
// are offline when an event occurs never receive it; they resync from the
// snapshot store instead.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]chan Event)}
}

// Subscribe registers a new observer channel and returns its id.
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	id := shortuuid.New()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes and closes the observer channel; safe to call twice.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Broadcast delivers the event to every observer. The sends never block, so
// delivery happens under the lock; an Unsubscribe can therefore never close a
// channel mid-delivery. Observers whose buffer is full are removed without
// aborting delivery to the rest.
func (b *Broadcaster) Broadcast(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Observers returns the number of connected observers.
func (b *Broadcaster) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
