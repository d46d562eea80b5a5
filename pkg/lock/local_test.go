package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerialisesSameKey(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "job:3:ea_deploy")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.size())
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	releaseA, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := l.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalAcquireHonoursContext(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "vps:7")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "vps:7")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release()
	assert.Equal(t, 0, l.size())
}
