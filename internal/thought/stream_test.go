package thought

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamBuffersForLateSubscriber(t *testing.T) {
	s := NewStream()

	// Emissions with no subscriber attached must neither block nor fail.
	for i := 0; i < 5; i++ {
		s.Emit(New(TypeReasoning, fmt.Sprintf("thought %d", i)))
	}

	sub := s.Subscribe()
	s.Emit(New(TypeSuccess, "thought 5"))
	s.Close()

	var got []string
	for th := range sub {
		got = append(got, th.Content)
	}
	require.Len(t, got, 6)
	for i, content := range got {
		assert.Equal(t, fmt.Sprintf("thought %d", i), content)
	}
}

func TestStreamOrderingUnderConcurrentConsumption(t *testing.T) {
	s := NewStream()
	sub := s.Subscribe()

	const n = 200
	done := make(chan []string)
	go func() {
		var got []string
		for th := range sub {
			got = append(got, th.Content)
		}
		done <- got
	}()

	for i := 0; i < n; i++ {
		s.Emit(New(TypeObservation, fmt.Sprintf("t%04d", i)))
	}
	s.Close()

	got := <-done
	require.Len(t, got, n)
	for i := 1; i < n; i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestStreamEmitAfterCloseIsNoOp(t *testing.T) {
	s := NewStream()
	s.Close()
	s.Emit(New(TypeError, "late"))
	assert.Zero(t, s.Len())

	sub := s.Subscribe()
	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel never closed")
	}
}

func TestStreamDetachedConsumerDoesNotBlockProducer(t *testing.T) {
	s := NewStream()
	_ = s.Subscribe() // attach, then never read

	doneEmitting := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Emit(New(TypeReasoning, "x"))
		}
		close(doneEmitting)
	}()

	select {
	case <-doneEmitting:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on detached consumer")
	}
	s.Detach()
}

func TestThoughtColors(t *testing.T) {
	assert.Equal(t, "red", ColorFor(TypeError))
	assert.Equal(t, "green", ColorFor(TypeSuccess))
	assert.Equal(t, "white", ColorFor(Type("made-up")))

	th := New(TypePlanning, "plan it").WithNode("planner").WithSkill("evaluate")
	assert.Equal(t, "blue", th.Color)
	assert.Equal(t, "planner", th.Node)
	assert.Equal(t, "evaluate", th.Skill)
	assert.False(t, th.Timestamp.IsZero())
}
