package models

import "time"

// Sender identifies who authored a transcript entry
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the sender name
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether s is one of the known senders
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is a single transcript entry. It is never mutated after creation.
type Message struct {
	Text      string
	Sender    Sender
	CreatedAt time.Time
}

// NewUserMessage creates a user-authored message stamped with the current time
func NewUserMessage(text string) Message {
	return Message{Text: text, Sender: SenderUser, CreatedAt: time.Now()}
}

// NewBotMessage creates a bot-authored message stamped with the current time
func NewBotMessage(text string) Message {
	return Message{Text: text, Sender: SenderBot, CreatedAt: time.Now()}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsBot reports whether the message was written by the bot
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}
