package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rex-nihilo/chatlens/internal/session"
)

func TestInletRoundTrip(t *testing.T) {
	c := session.NewCorrelator()

	c.BeginInlet("u1")
	c.StoreInlet("u1", &session.InletRecord{
		Selection: map[string]any{"summary": "data"},
		Timestamp: "2026-08-30 10:00:00",
	})

	inlet, stream := c.Take("u1")
	require.NotNil(t, inlet)
	assert.Equal(t, "2026-08-30 10:00:00", inlet.Timestamp)
	assert.Nil(t, stream)

	// Take clears: a second take finds nothing.
	inlet, stream = c.Take("u1")
	assert.Nil(t, inlet)
	assert.Nil(t, stream)
}

func TestBeginInletResetsPriorState(t *testing.T) {
	c := session.NewCorrelator()

	c.StoreInlet("u1", &session.InletRecord{Timestamp: "old"})
	c.AppendStream("u1", map[string]any{"chunk": float64(1)})

	c.BeginInlet("u1")

	inlet, stream := c.Take("u1")
	assert.Nil(t, inlet)
	assert.Nil(t, stream)
}

func TestAppendStream_FirstAndOrder(t *testing.T) {
	c := session.NewCorrelator()

	first, count := c.AppendStream("u1", "e1")
	assert.True(t, first)
	assert.Equal(t, 1, count)

	first, count = c.AppendStream("u1", "e2")
	assert.False(t, first)
	assert.Equal(t, 2, count)

	_, stream := c.Take("u1")
	require.NotNil(t, stream)
	assert.Equal(t, []any{"e1", "e2"}, stream.Events, "events kept in delivery order")
}

func TestClearStream(t *testing.T) {
	c := session.NewCorrelator()

	c.AppendStream("u1", "e1")
	c.ClearStream("u1")

	_, stream := c.Take("u1")
	assert.Nil(t, stream)
}

func TestUsersAreIndependent(t *testing.T) {
	c := session.NewCorrelator()

	c.StoreInlet("u1", &session.InletRecord{Timestamp: "t1"})
	c.StoreInlet("u2", &session.InletRecord{Timestamp: "t2"})
	c.AppendStream("u2", "e")

	inlet1, stream1 := c.Take("u1")
	require.NotNil(t, inlet1)
	assert.Equal(t, "t1", inlet1.Timestamp)
	assert.Nil(t, stream1)

	inlet2, stream2 := c.Take("u2")
	require.NotNil(t, inlet2)
	assert.Equal(t, "t2", inlet2.Timestamp)
	require.NotNil(t, stream2)
	assert.Len(t, stream2.Events, 1)
}

func TestSameUserOverwriteLastWriterWins(t *testing.T) {
	c := session.NewCorrelator()

	c.StoreInlet("u1", &session.InletRecord{Timestamp: "first"})
	c.StoreInlet("u1", &session.InletRecord{Timestamp: "second"})

	inlet, _ := c.Take("u1")
	require.NotNil(t, inlet)
	assert.Equal(t, "second", inlet.Timestamp)
}

func TestMarkStreamNotice_OncePerRoundTrip(t *testing.T) {
	c := session.NewCorrelator()

	assert.True(t, c.MarkStreamNotice("u1"))
	assert.False(t, c.MarkStreamNotice("u1"))

	// Reset via BeginInlet allows the notice again.
	c.BeginInlet("u1")
	assert.True(t, c.MarkStreamNotice("u1"))
}

func TestConcurrentDistinctUsers(t *testing.T) {
	c := session.NewCorrelator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := string(rune('a' + n))
			c.BeginInlet(user)
			c.StoreInlet(user, &session.InletRecord{Timestamp: user})
			for j := 0; j < 10; j++ {
				c.AppendStream(user, j)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		user := string(rune('a' + i))
		inlet, stream := c.Take(user)
		require.NotNil(t, inlet, "user %s", user)
		assert.Equal(t, user, inlet.Timestamp)
		require.NotNil(t, stream)
		assert.Len(t, stream.Events, 10)
	}
}
