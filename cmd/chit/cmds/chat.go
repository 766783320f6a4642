package cmds

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/chit/pkg/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, a *app, w io.Writer) error {
	session, err := a.newSession()
	if err != nil {
		return err
	}

	backend := ui.NewSessionBackend(ctx, session)
	model := ui.NewModel(backend, ui.WithMarkdown(a.settings.Markdown))
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	log.Debug().Str("component", "chat").Msg("Starting Bubble Tea program")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat ui")
	}
	log.Debug().Str("component", "chat").Int("pairs", session.Transcript().Len()).Msg("Bubble Tea program finished")

	// the alt screen is gone, leave the conversation on the terminal
	if session.Transcript().Len() > 0 {
		_, err := fmt.Fprintln(w, ui.RenderTranscript(session.Transcript().Pairs(), ui.RenderOptions{
			Styles: ui.DefaultStyles(),
		}))
		return err
	}
	return nil
}
