package console

import (
	"sync"
	"time"
)

// Level of a banner message
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one banner line
type Message struct {
	Level Level
	Text  string
}

// Banner shows the latest status message until it expires or is dismissed
type Banner struct {
	mu      sync.Mutex
	msg     Message
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewBanner creates a banner whose messages expire after ttl. now may be nil.
func NewBanner(ttl time.Duration, now func() time.Time) *Banner {
	if now == nil {
		now = time.Now
	}
	return &Banner{ttl: ttl, now: now}
}

// Show replaces the current message
func (b *Banner) Show(level Level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msg = Message{Level: level, Text: text}
	b.expires = b.now().Add(b.ttl)
}

func (b *Banner) Success(text string) { b.Show(LevelSuccess, text) }
func (b *Banner) Warn(text string)    { b.Show(LevelWarning, text) }
func (b *Banner) Error(text string)   { b.Show(LevelError, text) }

// Current returns the message if it has not expired
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msg.Text == "" || !b.now().Before(b.expires) {
		return Message{}, false
	}
	return b.msg, true
}

// Dismiss clears the message
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msg = Message{}
}
