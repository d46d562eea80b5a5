package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoSafeRecovers(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	GoSafe(func() {
		defer wg.Done()
		panic("boom")
	})
	ran := false
	GoSafe(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}

func TestTimeHelpers(t *testing.T) {
	now := TimeNowUTC()
	assert.Equal(t, time.UTC, now.Location())
	p := TimePtr(now)
	assert.Equal(t, now, *p)
}
