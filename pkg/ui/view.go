package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chit/pkg/transcript"
	"github.com/pkg/errors"
)

const (
	EmptyTranscriptText = "No messages yet. Type something to start chatting!"
	UserLabel           = "You:"
	BotLabel            = "Bot:"
)

// Block is the rendered form of one pair: the user line, then the bot line.
type Block struct {
	User string
	Bot  string
}

// Blocks maps pairs to blocks, one per pair, in transcript order.
func Blocks(pairs []transcript.Pair) []Block {
	blocks := make([]Block, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, Block{
			User: UserLabel + " " + p.User,
			Bot:  BotLabel + " " + p.Bot,
		})
	}
	return blocks
}

// RenderOptions tune RenderTranscript.
type RenderOptions struct {
	Styles Styles
	// Width wraps message text when positive.
	Width int
	// Bot transforms bot text before styling, e.g. markdown rendering.
	Bot func(string) string
}

// RenderTranscript renders pairs as text blocks separated by a blank line, or
// the placeholder when there are none. It has no side effects.
func RenderTranscript(pairs []transcript.Pair, opts RenderOptions) string {
	st := opts.Styles
	if len(pairs) == 0 {
		return st.Placeholder.Render(EmptyTranscriptText)
	}

	userText, botText := st.UserText, st.BotText
	if opts.Width > 0 {
		userText = userText.Width(opts.Width - lipgloss.Width(UserLabel) - 1)
		botText = botText.Width(opts.Width - lipgloss.Width(BotLabel) - 1)
	}

	rendered := make([]string, 0, len(pairs))
	for _, p := range pairs {
		bot := p.Bot
		if opts.Bot != nil {
			bot = opts.Bot(bot)
		}
		user := lipgloss.JoinHorizontal(lipgloss.Top, st.UserLabel.Render(UserLabel), " ", userText.Render(p.User))
		botLine := lipgloss.JoinHorizontal(lipgloss.Top, st.BotLabel.Render(BotLabel), " ", botText.Render(bot))
		rendered = append(rendered, user+"\n"+botLine)
	}
	return strings.Join(rendered, "\n\n")
}

// NewMarkdownRenderer returns a bot text transform backed by glamour. Text
// that fails to render is shown as is.
func NewMarkdownRenderer(width int) (func(string) string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create markdown renderer")
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.Trim(out, "\n")
	}, nil
}
