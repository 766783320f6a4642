package cmds

import (
	"context"
	"fmt"
	"io"

	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSendCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send one or more messages and print the transcript",
		Long: "Send each argument as a message. With --ordering overlapping the messages\n" +
			"are sent concurrently and appear in the order the replies arrive.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.newSession()
			if err != nil {
				return err
			}
			return sendAll(cmd.Context(), session, args, cmd.OutOrStdout(), replRenderOptions(a.settings.Markdown))
		},
	}
}

func sendAll(ctx context.Context, session *chat.Session, messages []string, w io.Writer, opts ui.RenderOptions) error {
	outcomes := make([]chat.Outcome, len(messages))

	if session.Ordering() == chat.OrderingSerialized {
		for i, m := range messages {
			outcomes[i] = session.SendText(ctx, m)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, m := range messages {
			g.Go(func() error {
				outcomes[i] = session.SendText(gctx, m)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, ui.RenderTranscript(session.Transcript().Pairs(), opts)); err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d messages failed", failed, len(messages))
	}
	return nil
}
