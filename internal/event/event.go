// Package event carries domain events to observability collaborators.
//
// Emission is synchronous and fire-and-forget: the core never awaits or
// depends on a sink's outcome, and sinks must not fail the caller.
package event

import (
	"log/slog"
	"sync"
	"time"
)

// Domain event names. Names are stable identifiers consumed by log and
// metric collaborators.
const (
	UserLogin       = "user:login"
	UserLogout      = "user:logout"
	SessionCreated  = "session:created"
	SessionAccessed = "session:accessed"
	SessionClosed   = "session:closed"
	SessionDeleted  = "session:deleted"
	ExerciseCreated = "exercise:created"
	ExerciseDeleted = "exercise:deleted"
	SetCreated      = "set:created"
	SetDeleted      = "set:deleted"
	StoreError      = "db:error"
)

// Event describes a domain occurrence: which entity was affected and by whom.
// Zero-valued ids are absent. Cause is set only for StoreError.
type Event struct {
	Name       string
	UserID     int64
	SessionID  int64
	ExerciseID int64
	SetID      int64
	At         time.Time
	Cause      error
}

// Sink receives emitted events. Implementations must be safe for concurrent
// use and must not block the emitter.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Multi fans an event out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}

// Discard is a sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// LogSink writes events to a structured logger.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink logging to the given logger.
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit implements Sink.
func (s *LogSink) Emit(e Event) {
	attrs := make([]any, 0, 6)
	if e.UserID != 0 {
		attrs = append(attrs, slog.Int64("user_id", e.UserID))
	}
	if e.SessionID != 0 {
		attrs = append(attrs, slog.Int64("session_id", e.SessionID))
	}
	if e.ExerciseID != 0 {
		attrs = append(attrs, slog.Int64("exercise_id", e.ExerciseID))
	}
	if e.SetID != 0 {
		attrs = append(attrs, slog.Int64("set_id", e.SetID))
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.Any("err", e.Cause))
		s.log.Error(e.Name, attrs...)
		return
	}
	s.log.Info(e.Name, attrs...)
}

// Recorder collects emitted events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns recorded events with the given name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
