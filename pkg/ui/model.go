package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/rs/zerolog/log"
)

const (
	InputPlaceholder = "Type your message..."
	SendLabel        = "[ Send ]"

	defaultWidth  = 80
	defaultHeight = 24
	// input row + help row
	chromeHeight = 2
)

// Model is the chat screen: a scrolling transcript, a text input and a send
// control.
type Model struct {
	backend  *SessionBackend
	input    textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap
	styles   Styles
	markdown bool
	renderMD func(string) string
	copy     func(string) error
	status   string
	width    int
	height   int
}

// ModelOption configures a Model in NewModel.
type ModelOption func(*Model)

// WithStyles replaces DefaultStyles.
func WithStyles(s Styles) ModelOption {
	return func(m *Model) { m.styles = s }
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(k KeyMap) ModelOption {
	return func(m *Model) { m.keys = k }
}

// WithMarkdown renders bot replies through glamour.
func WithMarkdown(enabled bool) ModelOption {
	return func(m *Model) { m.markdown = enabled }
}

// WithClipboard replaces the function used to copy the last reply.
func WithClipboard(f func(string) error) ModelOption {
	return func(m *Model) { m.copy = f }
}

// NewModel creates the chat screen for the backend's session. The input is
// focused and starts with the session draft.
func NewModel(backend *SessionBackend, options ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = InputPlaceholder
	ti.Prompt = "> "
	ti.Focus()

	vp := viewport.New(defaultWidth, defaultHeight-chromeHeight)
	vp.KeyMap = viewport.KeyMap{}

	m := Model{
		backend:  backend,
		input:    ti,
		viewport: vp,
		help:     help.New(),
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		copy:     clipboard.WriteAll,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	for _, opt := range options {
		opt(&m)
	}
	m.input.SetValue(backend.Session().Draft())
	m.resize(m.width, m.height)
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			return m.submit()
		case key.Matches(msg, m.keys.CopyLast):
			m.copyLastReply()
			return m, nil
		case key.Matches(msg, m.keys.ScrollUp):
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
			return m, nil
		case key.Matches(msg, m.keys.ScrollDown):
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.backend.Session().SetDraft(m.input.Value())
		return m, cmd

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.onSendButton(msg.X, msg.Y) {
			return m.submit()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ReplyMsg:
		cmd := m.backend.Finish(msg.Outcome)
		m.input.SetValue(m.backend.Session().Draft())
		m.input.CursorEnd()
		if msg.Outcome.OK() {
			m.status = ""
		}
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, d := m.backend.Session().Prepare()
	switch d {
	case chat.DispatchNone:
		return m, nil
	case chat.DispatchQueued:
		m.refresh()
		return m, nil
	}
	m.refresh()
	return m, m.backend.Start(req)
}

func (m *Model) copyLastReply() {
	last, ok := m.backend.Session().Transcript().Last()
	if !ok {
		return
	}
	if err := m.copy(last.Bot); err != nil {
		log.Error().Err(err).Str("component", "ui").Msg("Could not copy reply to clipboard")
		m.status = "copy failed"
		return
	}
	m.status = "copied last reply"
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-lipgloss.Width(m.input.Prompt)-lipgloss.Width(SendLabel)-2, 1)
	m.help.Width = width
	if m.markdown {
		r, err := NewMarkdownRenderer(width - lipgloss.Width(BotLabel) - 1)
		if err != nil {
			log.Warn().Err(err).Str("component", "ui").Msg("Markdown rendering disabled")
			m.renderMD = nil
		} else {
			m.renderMD = r
		}
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(RenderTranscript(m.backend.Session().Transcript().Pairs(), RenderOptions{
		Styles: m.styles,
		Width:  m.width,
		Bot:    m.renderMD,
	}))
	m.viewport.GotoBottom()
}

func (m Model) inputRow() (input string, button string) {
	return m.input.View(), m.styles.Button.Render(SendLabel)
}

// onSendButton reports whether the cell at x, y belongs to the send control.
func (m Model) onSendButton(x, y int) bool {
	if y != m.viewport.Height {
		return false
	}
	input, button := m.inputRow()
	start := lipgloss.Width(input) + 1
	return x >= start && x < start+lipgloss.Width(button)
}

func (m Model) footer() string {
	parts := []string{m.help.ShortHelpView(m.keys.ShortHelp())}
	if n := m.backend.Session().Pending(); n > 0 && m.backend.Session().Ordering() == chat.OrderingSerialized {
		parts = append(parts, fmt.Sprintf("%d pending", n))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return m.styles.Status.Render(strings.Join(parts, " • "))
}

func (m Model) View() string {
	input, button := m.inputRow()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		input+" "+button,
		m.footer(),
	)
}
