package call

import "sync"

// sequencer delivers observer notifications in the order their state
// versions were issued under the controller lock. Every version returned
// by bumpLocked must be passed to deliver exactly once.
type sequencer struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
}

func newSequencer() *sequencer {
	s := &sequencer{next: 1}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// deliver waits until every earlier version has been delivered, runs f and
// releases the next version. A nil f only releases.
func (s *sequencer) deliver(version uint64, f func()) {
	s.mu.Lock()
	for s.next != version {
		s.cond.Wait()
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.next++
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	if f != nil {
		f()
	}
}
