package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

func TestAppendAndHistory(t *testing.T) {
	s := NewInMemoryStore()

	require.NoError(t, s.Append("sess-1", core.Interaction{Role: "user", Text: "hello", Timestamp: time.Now()}))
	require.NoError(t, s.Append("sess-1", core.Interaction{Role: "assistant", Text: "hi", Timestamp: time.Now()}))

	history, err := s.History("sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestHistoryUnknownSession(t *testing.T) {
	s := NewInMemoryStore()

	history, err := s.History("nope")
	require.NoError(t, err, "unknown sessions yield empty history, not an error")
	assert.Empty(t, history)
}

func TestHistoryIsACopy(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("sess-1", core.Interaction{Role: "user", Text: "original"}))

	history, _ := s.History("sess-1")
	history[0].Text = "mutated"

	again, _ := s.History("sess-1")
	assert.Equal(t, "original", again[0].Text)
}

func TestClear(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("sess-1", core.Interaction{Role: "user", Text: "x"}))

	s.Clear("sess-1")

	history, _ := s.History("sess-1")
	assert.Empty(t, history)
}

func TestSessions(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("a", core.Interaction{Role: "user"}))
	require.NoError(t, s.Append("b", core.Interaction{Role: "user"}))

	assert.ElementsMatch(t, []string{"a", "b"}, s.Sessions())
}

func TestConcurrentAccess(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", i%4)
			_ = s.Append(id, core.Interaction{Role: "user", Text: "msg"})
			_, _ = s.History(id)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, id := range s.Sessions() {
		h, _ := s.History(id)
		total += len(h)
	}
	assert.Equal(t, 20, total)
}
