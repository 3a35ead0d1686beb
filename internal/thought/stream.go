package thought

import "sync"

// Stream is a per-request, append-only channel of thoughts. Emission never
// blocks: thoughts accumulate in an internal backlog and a single subscriber
// drains them in strict emission order. Thoughts emitted before the
// subscriber attaches are buffered, not dropped.
type Stream struct {
	mu      sync.Mutex
	cond    *sync.Cond
	backlog []*Thought
	next    int
	closed  bool
	done    chan struct{}
	out     chan *Thought
}

func NewStream() *Stream {
	s := &Stream{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Emit appends a thought to the stream. Safe to call with no subscriber
// attached and after Close (late emissions are silently ignored).
func (s *Stream) Emit(t *Thought) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.backlog = append(s.backlog, t)
	s.cond.Signal()
}

// Subscribe returns a channel delivering the backlog and all future thoughts
// in emission order. The channel is closed after Close once the backlog is
// drained. Only one subscriber per stream; repeat calls return the same
// channel.
func (s *Stream) Subscribe() <-chan *Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		return s.out
	}
	s.out = make(chan *Thought, 64)
	go s.pump()
	return s.out
}

func (s *Stream) pump() {
	for {
		s.mu.Lock()
		for s.next >= len(s.backlog) && !s.closed {
			s.cond.Wait()
		}
		if s.next >= len(s.backlog) && s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		t := s.backlog[s.next]
		s.next++
		s.mu.Unlock()

		// Deliver outside the lock. A detached consumer must not wedge the
		// pump forever, so Detach releases it.
		select {
		case s.out <- t:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// Close ends the stream on the producer side. The subscriber channel is
// closed once the backlog is drained; Emit afterwards is a no-op.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Detach tells the stream its subscriber stopped reading. The pump gives up
// on undelivered thoughts instead of blocking forever. Transports call this
// when the client goes away mid-request.
func (s *Stream) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	// Wake the pump if it is parked waiting for new thoughts.
	s.closed = true
	s.cond.Broadcast()
}

// Len reports how many thoughts have been emitted so far.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlog)
}
