/*
Package session implements the client side of the chat protocol: local
identity and group state, the send/receive loops, command parsing, and the
correlation of requests with their server responses.
*/
package session

import (
	"sync"

	"github.com/GuahBy/projetISY/internal/app/message"
)

// State is the client's view of its own identity and current group. The
// input loop and the receive loop both touch it, so every access goes
// through the mutex.
type State struct {
	mu       sync.Mutex
	username string
	group    string
	color    string
}

func NewState(username string) *State {
	return &State{username: username}
}

func (s *State) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Group returns the current group name and its display color. An empty name
// means the client is not in a group.
func (s *State) Group() (name, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group, s.color
}

func (s *State) SetGroup(name, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.group = name
	s.color = color
}

// ClearGroup drops the group association, after a leave or a kick.
func (s *State) ClearGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.group = ""
	s.color = ""
}

// AdoptColor updates the stored color when the named group is the current
// one. It reports whether the update applied.
func (s *State) AdoptColor(group, color string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != group || !message.ValidColorName(color) {
		return false
	}
	s.color = color
	return true
}
