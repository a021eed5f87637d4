package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/sync-schedules/pkg/core"
)

func TestHub_DeliversToAllSubscribers(t *testing.T) {
	var h Hub
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Len())

	e := &core.SchedulesLoaded{Count: 3, Timestamp: time.Now()}
	h.Emit(e)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Same(t, e, (<-a).(*core.SchedulesLoaded))
	assert.Same(t, e, (<-b).(*core.SchedulesLoaded))
}

func TestHub_Unsubscribe(t *testing.T) {
	var h Hub
	a := h.Subscribe()
	b := h.Subscribe()

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Len())

	h.Emit(&core.SchedulesLoaded{})
	assert.Len(t, a, 0)
	assert.Len(t, b, 1)
}

func TestHub_DropsWhenFull(t *testing.T) {
	var h Hub
	ch := h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultBuffer+10; i++ {
			h.Emit(&core.SchedulesLoaded{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
	assert.Len(t, ch, DefaultBuffer)
}
