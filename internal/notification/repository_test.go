package notification

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFanOutBoundsConcurrency(t *testing.T) {
	const limit = 4

	args := make([]SendRequest, 32)
	for i := range args {
		args[i] = SendRequest{UserID: "user-1", Title: "Payment Confirmed", Channel: InApp}
	}

	var active, peak, sent int32

	fanOut(args, limit, func(SendRequest) {
		now := atomic.AddInt32(&active, 1)

		for {
			seen := atomic.LoadInt32(&peak)
			if now <= seen || atomic.CompareAndSwapInt32(&peak, seen, now) {
				break
			}
		}

		time.Sleep(time.Millisecond)

		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&sent, 1)
	})

	assert.Equal(t, int32(len(args)), sent)
	assert.LessOrEqual(t, peak, int32(limit))
	assert.Zero(t, active)
}

func TestFanOutWaitsForEverySend(t *testing.T) {
	args := make([]SendRequest, 5)

	var mu sync.Mutex
	var delivered []int

	i := 0
	fanOut(args, 2, func(SendRequest) {
		mu.Lock()
		delivered = append(delivered, i)
		i++
		mu.Unlock()
	})

	assert.Len(t, delivered, len(args))
}

func TestFanOutEmpty(t *testing.T) {
	called := false

	fanOut(nil, 3, func(SendRequest) {
		called = true
	})

	assert.False(t, called)
}
