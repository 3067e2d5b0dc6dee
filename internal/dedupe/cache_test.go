package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(ttl time.Duration, size int) (*Cache, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newCache(ttl, size, clock.Now), clock
}

func TestSeenMarksFirstOccurrence(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute, 10)
	assert.False(t, c.Seen("mid.1"))
	assert.True(t, c.Seen("mid.1"))
	assert.False(t, c.Seen("mid.2"))
}

func TestSeenIgnoresBlankKeys(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute, 10)
	assert.False(t, c.Seen(""))
	assert.False(t, c.Seen("  "))
	assert.Equal(t, 0, c.Len())
}

func TestSeenExpires(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(time.Minute, 10)
	assert.False(t, c.Seen("mid.1"))
	clock.Advance(time.Minute)
	assert.False(t, c.Seen("mid.1"), "expired key should be treated as new")
	assert.True(t, c.Seen("mid.1"))
}

func TestSeenEvictsOldest(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Hour, 2)
	c.Seen("a")
	c.Seen("b")
	c.Seen("c")
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Seen("a"), "oldest key should have been evicted")
}

func TestSweepRemovesExpired(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(time.Minute, 10)
	c.Seen("old")
	clock.Advance(45 * time.Second)
	c.Seen("new")
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Seen("new"))
}

func TestSeenConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(time.Minute, 100)
	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.Seen("mid.shared") {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fresh.Load())
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	c := New(time.Minute, 10)
	for i := 0; i < 3; i++ {
		c.Close()
	}
	assert.False(t, c.Seen(fmt.Sprintf("after-close-%d", 1)))
}
