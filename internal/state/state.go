package state

import (
	"errors"
	"fmt"
	"sync"
)

// Screen is the screen currently shown to the user.
type Screen int

const (
	Home Screen = iota
	Capture
)

func (s Screen) String() string {
	switch s {
	case Home:
		return "home"
	case Capture:
		return "capture"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// State is the application-wide state shared by every front end.
type State struct {
	Screen Screen
	Text   string
}

var ErrInvalidTransition = errors.New("invalid screen transition")

// Transitions are pure: they never touch the receiver and report
// ErrInvalidTransition with the input state when the move is not allowed.

func NavigateToCapture(s State) (State, error) {
	if s.Screen != Home {
		return s, fmt.Errorf("%w: capture from %s", ErrInvalidTransition, s.Screen)
	}
	return State{Screen: Capture, Text: s.Text}, nil
}

// Confirm commits detected into the shared text and returns home.
func Confirm(s State, detected string) (State, error) {
	if s.Screen != Capture {
		return s, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.Screen)
	}
	return State{Screen: Home, Text: detected}, nil
}

// Discard clears the shared text and returns home.
func Discard(s State) (State, error) {
	if s.Screen != Capture {
		return s, fmt.Errorf("%w: discard from %s", ErrInvalidTransition, s.Screen)
	}
	return State{Screen: Home}, nil
}

// Store holds the single shared State instance.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Apply runs fn against the current state and stores the result if fn
// succeeds. The returned State is whatever is stored after the call.
func (s *Store) Apply(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}
