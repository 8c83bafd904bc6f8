// Package chat implements the request coordinator: the conversation state
// machine that turns user input into transcript entries and keeps at most
// one backend query in flight.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diogo/weatherchat/internal/gateway"
	"github.com/diogo/weatherchat/internal/models"
	"github.com/diogo/weatherchat/internal/transcript"
)

// Rejection reasons returned by Submit. Callers that want silent behavior ignore them.
var (
	ErrEmptyQuery = errors.New("query is empty")
	ErrBusy       = errors.New("a query is already in flight")
)

// Ticket identifies the single outstanding query
type Ticket struct {
	ID    string
	Query string
}

// Outcome is the settled result of one query
type Outcome struct {
	Ticket  Ticket
	Answer  string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the gateway produced a usable answer
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Reply returns the bot text for this outcome
func (o Outcome) Reply() string {
	if o.Err != nil {
		return models.BackendUnreachable
	}
	return o.Answer
}

// State is a read-only snapshot of the conversation
type State struct {
	Messages     []models.Message
	PendingInput string
	Busy         bool
}

// CanSubmit mirrors Submit's acceptance precondition
func (s State) CanSubmit() bool {
	return !s.Busy && strings.TrimSpace(s.PendingInput) != ""
}

// Coordinator owns the conversation state. All mutation is expected to
// happen on one goroutine; Resolve is the only call that blocks on I/O and
// it never touches state.
type Coordinator struct {
	gateway    gateway.Gateway
	transcript *transcript.Transcript
	timeout    time.Duration
	logger     zerolog.Logger
	observers  []Observer

	mu           sync.RWMutex
	pendingInput string
	inFlight     *Ticket
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithTimeout bounds each query. Zero means wait for the gateway indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithLogger sets the logger for anomalies such as stale outcomes and gateway panics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithObserver registers a callback for state transitions
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, o)
	}
}

// WithGreeting replaces the seeded bot greeting
func WithGreeting(text string) Option {
	return func(c *Coordinator) {
		c.transcript = transcript.New(models.NewBotMessage(text))
	}
}

// NewCoordinator creates an idle coordinator whose transcript holds the greeting
func NewCoordinator(gw gateway.Gateway, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:    gw,
		transcript: transcript.New(models.NewBotMessage(models.Greeting)),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPendingInput updates the composition buffer only
func (c *Coordinator) SetPendingInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingInput = text
}

// PendingInput returns the composition buffer
func (c *Coordinator) PendingInput() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingInput
}

// Busy reports whether a query is outstanding
func (c *Coordinator) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight != nil
}

// Transcript returns the message log for read access
func (c *Coordinator) Transcript() *transcript.Transcript {
	return c.transcript
}

// Snapshot returns the current state
func (c *Coordinator) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Messages:     c.transcript.Messages(),
		PendingInput: c.pendingInput,
		Busy:         c.inFlight != nil,
	}
}

// Submit accepts raw as the next query when it is non-blank and no other
// query is outstanding. On acceptance the untrimmed text is appended as a
// user message, the composition buffer is cleared and the coordinator
// becomes busy until the returned ticket is settled.
func (c *Coordinator) Submit(raw string) (Ticket, error) {
	c.mu.Lock()

	if strings.TrimSpace(raw) == "" {
		c.mu.Unlock()
		c.emit(Event{Kind: EventRejected, Query: raw, Err: ErrEmptyQuery})
		return Ticket{}, ErrEmptyQuery
	}
	if c.inFlight != nil {
		c.mu.Unlock()
		c.emit(Event{Kind: EventRejected, Query: raw, Err: ErrBusy})
		return Ticket{}, ErrBusy
	}

	if err := c.transcript.Append(models.NewUserMessage(raw)); err != nil {
		c.mu.Unlock()
		return Ticket{}, fmt.Errorf("failed to record query: %w", err)
	}

	ticket := Ticket{ID: uuid.NewString(), Query: raw}
	c.inFlight = &ticket
	c.pendingInput = ""
	c.mu.Unlock()

	c.emit(Event{Kind: EventSubmitted, Ticket: ticket, Query: raw})
	return ticket, nil
}

// Resolve performs the single gateway call for ticket. It blocks until the
// gateway answers, fails, or the configured timeout elapses, and always
// returns an Outcome: a panicking gateway is reported as a failure.
func (c *Coordinator) Resolve(ctx context.Context, ticket Ticket) (out Outcome) {
	out.Ticket = ticket
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("ticket", ticket.ID).Interface("panic", r).Msg("gateway panicked")
			out.Answer = ""
			out.Err = fmt.Errorf("gateway panic: %v", r)
		}
		out.Elapsed = time.Since(start)
	}()

	if c.gateway == nil {
		out.Err = errors.New("no gateway configured")
		return out
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx = gateway.WithRequestID(ctx, ticket.ID)

	out.Answer, out.Err = c.gateway.Ask(ctx, ticket.Query)
	return out
}

// Settle applies out: exactly one bot message is appended and the
// coordinator returns to idle. Outcomes for anything other than the
// outstanding ticket are ignored and Settle returns false.
func (c *Coordinator) Settle(out Outcome) bool {
	c.mu.Lock()
	if c.inFlight == nil || c.inFlight.ID != out.Ticket.ID {
		c.mu.Unlock()
		c.logger.Debug().Str("ticket", out.Ticket.ID).Msg("ignoring stale outcome")
		return false
	}

	if err := c.transcript.Append(models.NewBotMessage(out.Reply())); err != nil {
		c.logger.Error().Err(err).Str("ticket", out.Ticket.ID).Msg("failed to record reply")
	}
	c.inFlight = nil
	c.mu.Unlock()

	c.emit(Event{Kind: EventSettled, Ticket: out.Ticket, Query: out.Ticket.Query, Err: out.Err, Elapsed: out.Elapsed})
	return true
}

// Ask runs Submit, Resolve and Settle on the calling goroutine
func (c *Coordinator) Ask(ctx context.Context, raw string) (Outcome, error) {
	ticket, err := c.Submit(raw)
	if err != nil {
		return Outcome{}, err
	}
	out := c.Resolve(ctx, ticket)
	c.Settle(out)
	return out, nil
}

// SubmitPending submits the current composition buffer
func (c *Coordinator) SubmitPending() (Ticket, error) {
	return c.Submit(c.PendingInput())
}

func (c *Coordinator) emit(e Event) {
	for _, o := range c.observers {
		o(e)
	}
}
