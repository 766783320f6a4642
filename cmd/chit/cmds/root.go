package cmds

import (
	"context"
	"io"
	"os"

	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/chatclient"
	"github.com/go-go-golems/chit/pkg/config"
	"github.com/go-go-golems/chit/pkg/logging"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	settings  config.Settings
	logCloser io.Closer
}

func (a *app) newClient() (*chatclient.Client, error) {
	client, err := chatclient.New(a.settings.ClientConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create chat client")
	}
	return client, nil
}

func (a *app) newSession() (*chat.Session, error) {
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("api_url", client.BaseURL()).
		Str("ordering", string(a.settings.Ordering)).
		Msg("Chat client configured")
	return chat.NewSession(client, chat.WithOrdering(a.settings.Ordering)), nil
}

// closeLog closes the log file opened by PersistentPreRunE. It is safe to
// call more than once.
func (a *app) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	c := a.logCloser
	a.logCloser = nil
	return c.Close()
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewRootCommand builds the chit command tree.
func NewRootCommand() *cobra.Command {
	rootCmd, _ := newRootCommand()
	return rootCmd
}

// Execute runs the command tree and closes the log file afterwards, also
// when the command failed and PersistentPostRunE was skipped.
func Execute(ctx context.Context) error {
	rootCmd, a := newRootCommand()
	return execute(ctx, rootCmd, a)
}

func execute(ctx context.Context, rootCmd *cobra.Command, a *app) (err error) {
	defer func() {
		if cerr := a.closeLog(); err == nil {
			err = cerr
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "chit",
		Short:         "chit is a terminal client for a simple chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			s, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a.settings = s

			// the TUI owns the terminal, so it always logs to a file
			quiet := cmd.Name() == "chat" || (cmd.Name() == "chit" && stdinIsTerminal())
			closer, err := logging.InitLogger(logging.Settings{
				Level: s.LogLevel,
				File:  s.LogFile,
				Quiet: quiet,
			})
			if err != nil {
				return err
			}
			a.logCloser = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdinIsTerminal() {
				return runChat(cmd.Context(), a, cmd.OutOrStdout())
			}
			return runRepl(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), false)
		},
	}
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newChatCommand(a),
		newReplCommand(a),
		newSendCommand(a),
		newHealthCommand(a),
		newStatsCommand(a),
	)
	return rootCmd, a
}
