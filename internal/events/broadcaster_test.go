// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasda977/Slice-Video/internal/progress"
)

func TestBroadcastDeliversToAllObservers(t *testing.T) {
	b := NewBroadcaster()

	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()
	assert.Equal(t, 2, b.Observers())

	event := Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusCompleted}
	b.Broadcast(event)

	assert.Equal(t, event, <-ch1)
	assert.Equal(t, event, <-ch2)
}

func TestUnsubscribedObserverMissesEvents(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	b.Broadcast(Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusError})

	_, open := <-ch
	assert.False(t, open, "channel closed on unsubscribe")
	assert.Equal(t, 0, b.Observers())
}

func TestUnsubscribeTwice(t *testing.T) {
	b := NewBroadcaster()
	id, _ := b.Subscribe()

	b.Unsubscribe(id)
	assert.NotPanics(t, func() { b.Unsubscribe(id) })
}

func TestBroadcastDropsStalledObserver(t *testing.T) {
	b := NewBroadcaster()

	_, stalled := b.Subscribe()

	// 缓冲满之后的下一次投递失败,观察者被摘除
	for i := 0; i <= subscriberBuffer; i++ {
		b.Broadcast(Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusCompleted})
	}
	require.Equal(t, 0, b.Observers())

	drained := 0
	for range stalled {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained, "stalled channel closed after its buffer")

	// 摘除一个观察者不影响后来者
	_, fresh := b.Subscribe()
	b.Broadcast(Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusError})
	assert.Equal(t, progress.StatusError, (<-fresh).Status)
}

func TestConcurrentBroadcastAndUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	stop := make(chan struct{})
	var pump sync.WaitGroup

	// 投递与断开并发进行,任何一次向已关闭通道的发送都会让测试崩溃
	pump.Add(1)
	go func() {
		defer pump.Done()
		for {
			select {
			case <-stop:
				return
			default:
				b.Broadcast(Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusCompleted})
			}
		}
	}()

	var subs sync.WaitGroup
	for i := 0; i < 4; i++ {
		subs.Add(1)
		go func() {
			defer subs.Done()
			for j := 0; j < 2000; j++ {
				id, ch := b.Subscribe()
				<-ch
				b.Unsubscribe(id)
			}
		}()
	}

	subs.Wait()
	close(stop)
	pump.Wait()
}

func TestBroadcastWithNoObservers(t *testing.T) {
	b := NewBroadcaster()
	assert.NotPanics(t, func() {
		b.Broadcast(Event{Type: TypeConversionComplete, Job: "movie", Status: progress.StatusCancelled})
	})
}
