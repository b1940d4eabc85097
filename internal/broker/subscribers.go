package broker

import (
	"fmt"
	"sync"
)

// Handle identifies one subscriber's slot within a kind's subscriber set.
//
// Handles are unique among live subscribers. A released slot is recycled for
// a later subscriber.
type Handle int

// subscriberSet is a dense slot table of outgoing channels for one kind.
//
// Free slots are tracked on a free list so handles stay small and the table
// does not grow with subscriber churn.
type subscriberSet[T any] struct {
	mu    sync.Mutex
	slots []chan T
	free  []Handle
	live  int
}

func newSubscriberSet[T any]() *subscriberSet[T] {
	return &subscriberSet[T]{}
}

// insert adds ch and returns its handle and the new live count.
func (s *subscriberSet[T]) insert(ch chan T) (Handle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h Handle
	if n := len(s.free); n > 0 {
		h = s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[h] = ch
	} else {
		h = Handle(len(s.slots))
		s.slots = append(s.slots, ch)
	}
	s.live++
	return h, s.live
}

// remove releases the slot at h and returns the new live count.
//
// Releasing a handle that is not live is a caller bug and panics: a second
// release could free a slot already recycled for another subscriber.
func (s *subscriberSet[T]) remove(h Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h < 0 || int(h) >= len(s.slots) || s.slots[h] == nil {
		panic(fmt.Sprintf("broker: release of handle %d which is not live", h))
	}
	s.slots[h] = nil
	s.free = append(s.free, h)
	s.live--
	return s.live
}

// broadcast offers ev to every live channel without blocking.
//
// A full channel drops the event for that subscriber only.
func (s *subscriberSet[T]) broadcast(ev T) (delivered, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.slots {
		if ch == nil {
			continue
		}
		select {
		case ch <- ev:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

func (s *subscriberSet[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}
