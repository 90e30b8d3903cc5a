package beacon

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishAndRead(t *testing.T) {
	b := New()
	b.Publish(Status{Tick: 3, Row: 1, Col: 2, State: "CollectingRocks"}, []string{"!G", "GG"})

	s := b.Latest()
	assert.Equal(t, uint64(3), s.Tick)
	assert.Equal(t, 1, s.Row)
	assert.False(t, s.Halted)
	assert.Equal(t, []string{"!G", "GG"}, b.LatestMap())
}

func TestHaltFirstReasonWins(t *testing.T) {
	b := New()
	b.Halt("target keeps changing")
	b.Halt("second")

	assert.True(t, b.Halted())
	assert.Equal(t, "target keeps changing", b.HaltReason())
	assert.True(t, b.Latest().Halted)

	b.Publish(Status{Tick: 9}, nil)
	assert.True(t, b.Latest().Halted, "publish keeps the halt flag")
	assert.Equal(t, "target keeps changing", b.Latest().HaltReason)
}

func TestSubscribersDropWhenFull(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(1)

	b.Publish(Status{Tick: 1}, nil)
	b.Publish(Status{Tick: 2}, nil)

	s := <-ch
	assert.Equal(t, uint64(1), s.Tick)
	select {
	case <-ch:
		t.Fatal("second status should have been dropped")
	default:
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestConcurrentReaders(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := b.Latest()
				assert.GreaterOrEqual(t, s.Row, 0)
				_ = b.LatestMap()
			}
		}()
	}
	for i := 0; i < 100; i++ {
		b.Publish(Status{Tick: uint64(i), Row: i}, []string{"G"})
	}
	wg.Wait()
}
