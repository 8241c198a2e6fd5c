package frame

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Store holds at most one published image. Publish swaps the pointer
// atomically so readers never observe a partially written frame; the last
// completed Publish wins.
type Store struct {
	current atomic.Pointer[Image]

	subscribers  map[string]chan *Image
	subscriberMu sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subscribers: make(map[string]chan *Image)}
}

// Publish replaces the current image and notifies subscribers. A slow
// subscriber's pending image is replaced, so it skips intermediate frames
// but always ends up holding the latest one. Publish never blocks.
func (s *Store) Publish(im *Image) {
	s.current.Store(im)

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- im:
			continue
		default:
		}
		// drop the stale pending image
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- im:
		default:
		}
	}
}

// Fetch returns the current image, or false if nothing has been published.
func (s *Store) Fetch() (*Image, bool) {
	im := s.current.Load()
	return im, im != nil
}

// Subscribe registers a channel that holds at most one pending image, the
// most recently published. The returned ID is passed to Unsubscribe.
func (s *Store) Subscribe() (string, <-chan *Image) {
	id := uuid.NewString()
	ch := make(chan *Image, 1)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe closes and removes the subscriber channel.
func (s *Store) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Subscribers returns the number of registered subscribers.
func (s *Store) Subscribers() int {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	return len(s.subscribers)
}
