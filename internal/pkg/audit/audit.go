/*
Package audit provides the append-only event log for directory mutations.

Every mutating action and every authorization denial is recorded with an event
type and free-text details, timestamped. The sink is write-only: nothing in the
server consults it for logic. It is backed by a dedicated zerolog instance
writing JSON lines to the configured file.
*/
package audit

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Event types recorded by the server.
const (
	EventServer            = "SERVER"
	EventConnect           = "CONNECT"
	EventDisconnect        = "DISCONNECT"
	EventJoin              = "JOIN"
	EventJoinFail          = "JOIN_FAIL"
	EventLeave             = "LEAVE"
	EventPublic            = "PUBLIC"
	EventPrivate           = "PRIVATE"
	EventCreateGroup       = "CREATE_GROUP"
	EventMergeGroups       = "MERGE_GROUPS"
	EventMergeGroupsDenied = "MERGE_GROUPS_DENIED"
	EventChangeColor       = "CHANGE_COLOR"
	EventChangeColorDenied = "CHANGE_COLOR_DENIED"
	EventKickUser          = "KICK_USER"
	EventKickDenied        = "KICK_DENIED"
	EventPromoteAdmin      = "PROMOTE_ADMIN"
	EventPromoteDenied     = "PROMOTE_DENIED"
	EventDemoteAdmin       = "DEMOTE_ADMIN"
	EventDemoteDenied      = "DEMOTE_DENIED"
)

// Sink writes audit events to an append-only log file.
// A nil *Sink is valid and drops every event, so the server can keep running
// when the log file could not be opened.
type Sink struct {
	file   *os.File
	logger zerolog.Logger
}

// NewSink opens (or creates) the audit log file in append mode.
func NewSink(path string) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %q: %w", path, err)
	}
	return &Sink{
		file:   file,
		logger: zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

// Record appends one event to the log.
func (s *Sink) Record(eventType, details string) {
	if s == nil {
		return
	}
	s.logger.Log().
		Str("event", eventType).
		Str("details", details).
		Send()
}

// Recordf appends one event with printf-style details.
func (s *Sink) Recordf(eventType, format string, args ...any) {
	s.Record(eventType, fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.file.Close()
}
