package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/chit/pkg/chatclient"
	"github.com/go-go-golems/chit/pkg/transcript"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender is the part of the chat client a Session needs.
type Sender interface {
	SendMessage(ctx context.Context, text string) (*chatclient.Reply, error)
}

// Ordering decides what happens when a send is issued while another one is
// still in flight.
type Ordering string

const (
	// OrderingOverlapping lets requests run concurrently and appends replies
	// in the order they resolve.
	OrderingOverlapping Ordering = "overlapping"
	// OrderingSerialized keeps one request in flight and queues the rest, so
	// pairs are appended in send order.
	OrderingSerialized Ordering = "serialized"
)

// ParseOrdering parses a case-insensitive ordering name. The empty string
// selects OrderingOverlapping.
func ParseOrdering(s string) (Ordering, bool) {
	switch Ordering(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderingOverlapping:
		return OrderingOverlapping, true
	case OrderingSerialized:
		return OrderingSerialized, true
	default:
		return "", false
	}
}

// Dispatch tells the caller what Prepare decided.
type Dispatch int

const (
	// DispatchNone means the draft was blank and nothing happens.
	DispatchNone Dispatch = iota
	// DispatchStart means the returned request must be executed now.
	DispatchStart
	// DispatchQueued means the request waits for the one in flight.
	DispatchQueued
)

// Request is one user-initiated send.
type Request struct {
	ID         string
	Text       string
	EnqueuedAt time.Time
}

// Outcome is the result of one exchange. Exactly one of Reply or Err is
// meaningful unless Skipped or Queued is set.
type Outcome struct {
	RequestID string
	Text      string
	Reply     string
	Err       error
	// Skipped is set when the draft was blank.
	Skipped bool
	// Queued is set when the request was handed to the serialized queue and
	// will be completed by whoever finishes the request in flight.
	Queued bool
}

// OK reports whether the exchange produced a reply.
func (o Outcome) OK() bool { return !o.Skipped && !o.Queued && o.Err == nil }

// Session owns the draft input, the transcript and the exchange with the
// backend. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	sender     Sender
	transcript *transcript.Transcript
	draft      string
	ordering   Ordering
	inFlight   int
	queue      []Request
	logger     zerolog.Logger
}

// SessionOption configures a Session in NewSession.
type SessionOption func(*Session)

// WithOrdering selects how overlapping sends are handled.
func WithOrdering(o Ordering) SessionOption {
	return func(s *Session) {
		s.ordering = o
	}
}

// WithTranscript makes the session append to t instead of a fresh
// transcript. A nil t is ignored.
func WithTranscript(t *transcript.Transcript) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.transcript = t
		}
	}
}

// WithLogger sets the logger failures and appends are reported to.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session with an empty draft and transcript. It
// defaults to overlapping ordering and the global logger.
func NewSession(sender Sender, options ...SessionOption) *Session {
	s := &Session{
		sender:     sender,
		transcript: transcript.New(),
		ordering:   OrderingOverlapping,
		logger:     log.Logger.With().Str("component", "chat").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Transcript returns the transcript the session appends to.
func (s *Session) Transcript() *transcript.Transcript { return s.transcript }

// Ordering returns the ordering the session was created with.
func (s *Session) Ordering() Ordering { return s.ordering }

// SetDraft replaces the draft input.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Draft returns the current draft input.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Pending returns the number of requests in flight plus queued.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight + len(s.queue)
}

// Prepare snapshots the current draft into a request. The draft itself is
// left alone until the reply arrives.
func (s *Session) Prepare() (Request, Dispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepareLocked()
}

// PrepareText replaces the draft with text and prepares it in one step.
func (s *Session) PrepareText(text string) (Request, Dispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
	return s.prepareLocked()
}

func (s *Session) prepareLocked() (Request, Dispatch) {
	if strings.TrimSpace(s.draft) == "" {
		return Request{}, DispatchNone
	}
	req := Request{
		ID:         uuid.NewString(),
		Text:       s.draft,
		EnqueuedAt: time.Now(),
	}

	if s.ordering == OrderingSerialized && s.inFlight > 0 {
		s.queue = append(s.queue, req)
		s.logger.Debug().
			Str("request_id", req.ID).
			Int("queue_position", len(s.queue)).
			Msg("Queued chat message behind in-flight request")
		return req, DispatchQueued
	}

	s.inFlight++
	return req, DispatchStart
}

// Execute performs the network exchange for req. It does not touch session
// state and may be called from any goroutine.
func (s *Session) Execute(ctx context.Context, req Request) Outcome {
	o := Outcome{RequestID: req.ID, Text: req.Text}
	reply, err := s.sender.SendMessage(ctx, req.Text)
	if err != nil {
		o.Err = err
		return o
	}
	if reply == nil {
		o.Err = chatclient.ErrNoResponse
		return o
	}
	o.Reply = reply.Response
	return o
}

// Apply records the outcome of an executed request. On success the pair is
// appended and the draft cleared. On failure the error is logged and nothing
// else changes. In serialized mode the next queued request, if any, is
// returned and counted as in flight.
func (s *Session) Apply(o Outcome) *Request {
	if o.Skipped || o.Queued {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight > 0 {
		s.inFlight--
	}

	if o.Err != nil {
		s.logger.Error().
			Err(o.Err).
			Str("request_id", o.RequestID).
			Msg("Error fetching chat reply")
	} else {
		n := s.transcript.Append(transcript.Pair{User: o.Text, Bot: o.Reply})
		s.draft = ""
		s.logger.Debug().
			Str("request_id", o.RequestID).
			Int("transcript_len", n).
			Msg("Appended chat exchange")
	}

	if s.ordering != OrderingSerialized || s.inFlight > 0 || len(s.queue) == 0 {
		return nil
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.inFlight++
	return &next
}

// Send runs a full exchange for the current draft and blocks until it and
// any requests it releases from the queue have completed. The returned
// outcome is the one for the current draft.
func (s *Session) Send(ctx context.Context) Outcome {
	return s.run(ctx, s.Prepare)
}

// SendText sets the draft to text and sends it.
func (s *Session) SendText(ctx context.Context, text string) Outcome {
	return s.run(ctx, func() (Request, Dispatch) { return s.PrepareText(text) })
}

func (s *Session) run(ctx context.Context, prepare func() (Request, Dispatch)) Outcome {
	req, d := prepare()
	switch d {
	case DispatchNone:
		return Outcome{Skipped: true}
	case DispatchQueued:
		return Outcome{RequestID: req.ID, Text: req.Text, Queued: true}
	}

	first := s.Execute(ctx, req)
	next := s.Apply(first)
	for next != nil {
		next = s.Apply(s.Execute(ctx, *next))
	}
	return first
}
