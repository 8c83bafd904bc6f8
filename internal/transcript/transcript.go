// Package transcript holds the in-memory, append-only message log of a chat session.
package transcript

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/diogo/weatherchat/internal/models"
)

var (
	// ErrEmptyMessage is returned when a user message has no visible text
	ErrEmptyMessage = errors.New("user message text is empty")
	// ErrInvalidSender is returned for a message whose sender is unknown
	ErrInvalidSender = errors.New("invalid message sender")
)

// Transcript is the ordered message log. Insertion order is display order.
// There are no update, delete or reorder operations.
type Transcript struct {
	mu       sync.RWMutex
	messages []models.Message
}

// New creates a transcript seeded with the given messages
func New(seed ...models.Message) *Transcript {
	messages := make([]models.Message, 0, len(seed)+8)
	messages = append(messages, seed...)
	return &Transcript{messages: messages}
}

// Append adds msg to the end of the log. Bot messages may carry any text.
func (t *Transcript) Append(msg models.Message) error {
	if !msg.Sender.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSender, msg.Sender)
	}
	if msg.IsUser() && strings.TrimSpace(msg.Text) == "" {
		return ErrEmptyMessage
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return nil
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Messages returns a copy of the log
func (t *Transcript) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent message
func (t *Transcript) Last() (models.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return models.Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// LastFrom returns the most recent message written by sender
func (t *Transcript) LastFrom(sender models.Sender) (models.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Sender == sender {
			return t.messages[i], true
		}
	}
	return models.Message{}, false
}
