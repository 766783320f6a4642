package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/rs/zerolog/log"
)

// ReplyMsg carries a finished exchange back into the bubbletea loop.
type ReplyMsg struct {
	Outcome chat.Outcome
}

// SessionBackend runs chat exchanges off the UI loop. Session state is only
// changed when the resulting ReplyMsg is applied in Update.
type SessionBackend struct {
	ctx     context.Context
	session *chat.Session
}

// NewSessionBackend creates a backend whose exchanges run under ctx.
func NewSessionBackend(ctx context.Context, session *chat.Session) *SessionBackend {
	return &SessionBackend{ctx: ctx, session: session}
}

// Session returns the session the backend drives.
func (b *SessionBackend) Session() *chat.Session { return b.session }

// Start returns a command performing the exchange for req.
func (b *SessionBackend) Start(req chat.Request) tea.Cmd {
	ctx := b.ctx
	return func() tea.Msg {
		log.Debug().Str("component", "ui").Str("request_id", req.ID).Msg("Starting chat exchange")
		return ReplyMsg{Outcome: b.session.Execute(ctx, req)}
	}
}

// Finish applies o and returns the command for the next queued request, if
// any.
func (b *SessionBackend) Finish(o chat.Outcome) tea.Cmd {
	next := b.session.Apply(o)
	if next == nil {
		return nil
	}
	return b.Start(*next)
}
