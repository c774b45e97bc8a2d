// Package message collects the diagnostics produced while cajoling untrusted
// content. Content problems are never returned as Go errors; they are queued
// here with a severity and the position of the offending source.
package message

import (
	"fmt"
	"strings"
	"sync"

	"bennypowers.dev/cajoler/internal/position"
)

// Level is the severity of a message
type Level int

const (
	// Lint marks stylistic or informational rewrites
	Lint Level = iota
	// Warning marks content that was changed or dropped but is still usable
	Warning
	// Error marks content that could not be made safe
	Error
	// FatalError marks input that could not be processed at all
	FatalError
)

func (l Level) String() string {
	switch l {
	case Lint:
		return "LINT"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case FatalError:
		return "FATAL_ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "LINT":
		return Lint, nil
	case "WARNING":
		return Warning, nil
	case "ERROR":
		return Error, nil
	case "FATAL_ERROR":
		return FatalError, nil
	}
	return Lint, fmt.Errorf("unknown message level %q", s)
}

// Type identifies a kind of message. Format is a fmt template taking the
// message parts as %s operands.
type Type struct {
	Name   string
	Level  Level
	Format string
}

func (t Type) String() string { return t.Name }

// ParseError is reported when an embedded script or stylesheet cannot be
// parsed.
var ParseError = Type{"PARSE_ERROR", Error, "could not parse %s: %s"}

// Message is one queued diagnostic
type Message struct {
	Type  Type
	Level Level
	Pos   position.FilePosition
	Parts []string
}

// Text renders the message body without position or level.
func (m Message) Text() string {
	args := make([]any, len(m.Parts))
	for i, p := range m.Parts {
		args[i] = p
	}
	want := strings.Count(m.Type.Format, "%s")
	for len(args) < want {
		args = append(args, "")
	}
	text := fmt.Sprintf(m.Type.Format, args[:want]...)
	if len(args) > want {
		extra := make([]string, 0, len(args)-want)
		for _, a := range args[want:] {
			extra = append(extra, a.(string))
		}
		text += " (" + strings.Join(extra, ", ") + ")"
	}
	return text
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s: %s: %s", m.Level, m.Pos, m.Type.Name, m.Text())
}

// Queue accumulates messages. It is safe for concurrent use.
type Queue struct {
	mu   sync.Mutex
	msgs []Message
}

// NewQueue returns an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Add queues a message at the type's default level.
func (q *Queue) Add(t Type, pos position.FilePosition, parts ...string) {
	q.AddAt(t, t.Level, pos, parts...)
}

// AddAt queues a message with an explicit level.
func (q *Queue) AddAt(t Type, level Level, pos position.FilePosition, parts ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, Message{Type: t, Level: level, Pos: pos, Parts: parts})
}

// Append queues already built messages.
func (q *Queue) Append(msgs ...Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msgs...)
}

// Messages returns a snapshot of the queued messages in insertion order.
func (q *Queue) Messages() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.msgs))
	copy(out, q.msgs)
	return out
}

// Len returns the number of queued messages
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// OfType returns the queued messages of type t.
func (q *Queue) OfType(t Type) []Message {
	var out []Message
	for _, m := range q.Messages() {
		if m.Type.Name == t.Name {
			out = append(out, m)
		}
	}
	return out
}

// MaxLevel returns the highest level queued, and false when the queue is
// empty.
func (q *Queue) MaxLevel() (Level, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return Lint, false
	}
	max := q.msgs[0].Level
	for _, m := range q.msgs[1:] {
		if m.Level > max {
			max = m.Level
		}
	}
	return max, true
}

// HasErrors reports whether any message reached Error or above, which
// callers treat as a failed cajoling run.
func (q *Queue) HasErrors() bool {
	l, ok := q.MaxLevel()
	return ok && l >= Error
}
