package cmds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/transcript"
	"github.com/go-go-golems/chit/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newReplCommand(a *app) *cobra.Command {
	var noPrompt bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat line by line on stdin/stdout",
		Long: "Chat line by line. Each non-empty line is sent to the backend and the\n" +
			"exchange is printed. :retry resends the last failed message, :q quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), !noPrompt && stdinIsTerminal())
		},
	}
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not print the input prompt")
	return cmd
}

func runRepl(ctx context.Context, a *app, in io.Reader, w io.Writer, prompt bool) error {
	session, err := a.newSession()
	if err != nil {
		return err
	}
	return repl(ctx, session, in, w, replOptions{
		prompt: prompt,
		render: replRenderOptions(a.settings.Markdown),
	})
}

type replOptions struct {
	prompt bool
	render ui.RenderOptions
}

func replRenderOptions(markdown bool) ui.RenderOptions {
	opts := ui.RenderOptions{Styles: ui.PlainStyles()}
	if !stdoutIsTerminal() {
		return opts
	}
	opts.Styles = ui.DefaultStyles()
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		opts.Width = width
	}
	if markdown {
		r, err := ui.NewMarkdownRenderer(opts.Width - len(ui.BotLabel) - 1)
		if err != nil {
			log.Warn().Err(err).Msg("Markdown rendering disabled")
		} else {
			opts.Bot = r
		}
	}
	return opts
}

func repl(ctx context.Context, session *chat.Session, in io.Reader, w io.Writer, opts replOptions) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if opts.prompt {
		fmt.Fprintln(w, "chit (type :q to quit)")
	}

	for {
		if opts.prompt {
			fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := scanner.Text()
		var o chat.Outcome
		switch strings.TrimSpace(line) {
		case ":q", ":quit", ":exit":
			return nil
		case ":retry", ":r":
			o = session.Send(ctx)
		default:
			o = session.SendText(ctx, line)
		}
		if !o.OK() {
			// failures are logged by the session; the draft is kept for :retry
			continue
		}

		last, _ := session.Transcript().Last()
		fmt.Fprintln(w, ui.RenderTranscript([]transcript.Pair{last}, opts.render))
		fmt.Fprintln(w)
	}
}
