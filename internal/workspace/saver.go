package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/hashicorp/go-hclog"
)

// saver writes mutations to the persister in order on one goroutine.
// Enqueue never blocks.
type saver struct {
	persister Persister
	userID    string
	timeout   time.Duration
	logger    hclog.Logger
	onError   func(m interfaces.Mutation, err error)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []interfaces.Mutation
	busy   bool
	closed bool
	done   chan struct{}
}

func newSaver(p Persister, userID string, timeout time.Duration, logger hclog.Logger, onError func(interfaces.Mutation, error)) *saver {
	s := &saver{
		persister: p,
		userID:    userID,
		timeout:   timeout,
		logger:    logger,
		onError:   onError,
		done:      make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *saver) enqueue(m interfaces.Mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.queue = append(s.queue, m)
	s.cond.Broadcast()
	return true
}

// flush blocks until every queued mutation has been attempted.
func (s *saver) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) > 0 || s.busy {
		s.cond.Wait()
	}
}

// close stops accepting mutations, drains the queue and waits for the
// goroutine to exit.
func (s *saver) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *saver) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		m := s.queue[0]
		s.queue = s.queue[1:]
		s.busy = true
		s.mu.Unlock()

		s.save(m)

		s.mu.Lock()
		s.busy = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *saver) save(m interfaces.Mutation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.persister.SaveTree(ctx, s.userID, m); err != nil {
		s.logger.Error("failed to save tree",
			"action", m.Action,
			"collections", len(m.Collections),
			"error", err,
		)
		s.onError(m, err)
		return
	}

	s.logger.Debug("saved tree",
		"action", m.Action,
		"collections", len(m.Collections),
		"duration", time.Since(start),
	)
}
