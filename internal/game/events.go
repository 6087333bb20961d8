package game

// EventKind names a signal published by a Store.
type EventKind string

const (
	// EventState follows every mutation.
	EventState               EventKind = "state"
	EventInsufficientStamina EventKind = "insufficient_stamina"
	EventVictory             EventKind = "victory"
	EventHeartExpired        EventKind = "heart_expired"
)

// Event carries the snapshot taken right after the change.
type Event struct {
	Kind     EventKind `json:"kind"`
	Snapshot Snapshot  `json:"snapshot"`
}

const subscriberBuffer = 32

// Subscribe registers a listener. Events are dropped for a listener whose
// buffer is full. The channel is closed by unsubscribe or Store.Close.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publish sends kind to every subscriber. Caller holds s.mu.
func (s *Store) publish(kind EventKind) {
	if len(s.subs) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: s.snapshotLocked()}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
