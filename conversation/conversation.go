// Package conversation holds the in-memory message log behind a single
// conversation screen.
//
// The log is append-only and purely local: nothing here writes to or reads
// from a remote message collection, so a conversation reopens from its
// seed, not from history.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeFormat is the display timestamp carried by every message.
const TimeFormat = "3:04 PM"

// Stamp is the metadata common to every message variant: identity,
// authorship, and the display timestamp assigned exactly once at append
// time.
type Stamp struct {
	ID        string
	FromLocal bool
	Timestamp string
}

// Message is the sum type over the three variants.  The unexported method
// keeps the set closed, so rendering can type-switch exhaustively over
// Text, Image and Gif.
type Message interface {
	stamp() Stamp
}

// Text is a plain text message.
type Text struct {
	Stamp
	Content string
}

// Image is a message carrying a still-image reference.
type Image struct {
	Stamp
	Ref string
}

// Gif is a message carrying an animated-image reference.
type Gif struct {
	Stamp
	Ref string
}

func (t Text) stamp() Stamp  { return t.Stamp }
func (i Image) stamp() Stamp { return i.Stamp }
func (g Gif) stamp() Stamp   { return g.Stamp }

// Log is one conversation's ordered message sequence.  It is owned by the
// screen currently displaying it; there are no concurrent writers, but the
// lock keeps reads safe against UI callbacks.
type Log struct {
	mu   sync.Mutex
	now  func() time.Time
	msgs []Message
}

// NewLog builds a log, optionally pre-populated with seed messages.
func NewLog(seed ...Message) *Log {
	return &Log{now: time.Now, msgs: append([]Message(nil), seed...)}
}

// AppendText appends a local-authored text message and returns it.
func (l *Log) AppendText(content string) Text {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := Text{Stamp: l.newStamp(), Content: content}
	l.msgs = append(l.msgs, msg)
	return msg
}

// AppendImage appends a local-authored image message and returns it.
func (l *Log) AppendImage(ref string) Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := Image{Stamp: l.newStamp(), Ref: ref}
	l.msgs = append(l.msgs, msg)
	return msg
}

// AppendGif appends a local-authored gif message and returns it.
func (l *Log) AppendGif(ref string) Gif {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := Gif{Stamp: l.newStamp(), Ref: ref}
	l.msgs = append(l.msgs, msg)
	return msg
}

// Messages returns a snapshot copy of the log in insertion order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.msgs...)
}

// Len reports the number of messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func (l *Log) newStamp() Stamp {
	return Stamp{
		ID:        uuid.NewString(),
		FromLocal: true,
		Timestamp: l.now().Format(TimeFormat),
	}
}
