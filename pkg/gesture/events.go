package gesture

import "sync"

// EventKind classifies a pointer event
type EventKind int

const (
	EventDown EventKind = iota
	EventMove
	EventUp
	EventCancel
	EventWheel
)

// Event is a raw pointer or wheel event from an input surface
type Event struct {
	Kind  EventKind
	ID    int
	X, Y  float64
	Delta float64 // wheel only
}

// Source is an input surface that delivers pointer events
type Source interface {
	Subscribe(handler func(Event)) (unsubscribe func())
}

// Handle routes one event to the matching recognizer method
func (r *Recognizer) Handle(ev Event) {
	switch ev.Kind {
	case EventDown:
		r.Down(ev.ID, ev.X, ev.Y)
	case EventMove:
		r.Move(ev.ID, ev.X, ev.Y)
	case EventUp:
		r.Up(ev.ID)
	case EventCancel:
		r.Cancel(ev.ID)
	case EventWheel:
		r.Wheel(ev.Delta)
	}
}

// Attach subscribes the recognizer to src. The returned func detaches it
// and drops any tracked contacts.
func (r *Recognizer) Attach(src Source) (detach func()) {
	unsubscribe := src.Subscribe(r.Handle)
	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			r.Reset()
		})
	}
}

// Surface is a Source that hosts push events into, for example from a
// polling window loop
type Surface struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(Event)
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{handlers: make(map[int]func(Event))}
}

// Subscribe registers handler until the returned func is called
func (s *Surface) Subscribe(handler func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.handlers[id] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

// Emit delivers ev to every subscriber in registration order
func (s *Surface) Emit(ev Event) {
	s.mu.Lock()
	handlers := make([]func(Event), 0, len(s.handlers))
	for id := 0; id < s.next; id++ {
		if h, ok := s.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of attached handlers
func (s *Surface) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
