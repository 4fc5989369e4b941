package conversation

import (
	"sync"

	"birthdaybot/pkg/birthday"
)

type flowKind int

const (
	flowNone flowKind = iota
	flowAdd
	flowChange
	flowDelete
)

type step int

const (
	stepNone step = iota
	stepSelect
	stepName
	stepDate
	stepNote
)

// state is the scratch memory of one in-flight flow for one user.
// Each field is only meaningful for the steps that set it; the has*
// flags distinguish "collected" from "zero value".
type state struct {
	flow flowKind
	step step

	// add scratch
	name        string
	hasName     bool
	day, month  int
	year        *int
	hasDate     bool
	note        *string
	noteSkipped bool

	// change scratch: the record being edited plus new values. A new
	// note of nil with newNoteSet means the note is being deleted.
	recordID   int64
	old        birthday.Birthday
	newName    *string
	newDay     int
	newMonth   int
	newYear    *int
	hasNewDate bool
	newNote    *string
	newNoteSet bool
}

// store keeps per-user flow state. Turns for one user are serialized
// by a per-identity lock; a stop signal bypasses that lock and bumps
// the identity's epoch instead, so a commit that was in flight when
// the stop arrived discards its result.
type store struct {
	mu     sync.Mutex
	states map[string]*state
	epochs map[string]uint64
	turns  map[string]*sync.Mutex
}

func newStore() *store {
	return &store{
		states: make(map[string]*state),
		epochs: make(map[string]uint64),
		turns:  make(map[string]*sync.Mutex),
	}
}

func (s *store) turnLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.turns[identity]
	if !ok {
		lock = &sync.Mutex{}
		s.turns[identity] = lock
	}
	return lock
}

// current returns the active state, if any, and the identity's epoch.
func (s *store) current(identity string) (*state, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[identity], s.epochs[identity]
}

// put installs a fresh flow state, unless the epoch has moved on
// since the caller captured it (a stop raced the flow entry). It
// reports whether the state was installed.
func (s *store) put(identity string, st *state, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epochs[identity] != epoch {
		return false
	}
	s.states[identity] = st
	return true
}

// clear drops any in-flight flow and invalidates results of network
// calls started under the previous epoch. It returns the new epoch so
// a step that clears before its own network call can detect a stop
// that raced that call.
func (s *store) clear(identity string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, identity)
	s.epochs[identity]++
	return s.epochs[identity]
}

// valid reports whether the epoch observed before a network call is
// still the live one.
func (s *store) valid(identity string, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[identity] == epoch
}
