package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTimelineLocksSerializePerID(t *testing.T) {
	locks := newTimelineLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock(id)
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size())
}

func TestTimelineLocksIndependentIDs(t *testing.T) {
	locks := newTimelineLocks()
	releaseA := locks.lock(uuid.New())
	releaseB := locks.lock(uuid.New())
	assert.Equal(t, 2, locks.size())
	releaseA()
	releaseB()
	assert.Zero(t, locks.size())
}

func TestNilLocksAreNoop(t *testing.T) {
	var locks *timelineLocks
	release := locks.lock(uuid.New())
	release()
}
