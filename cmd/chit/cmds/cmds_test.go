package cmds

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/chatclient"
	"github.com/go-go-golems/chit/pkg/ui"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			var req struct {
				Message string `json:"message"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			reply := "re: " + req.Message
			if req.Message == "hello" {
				reply = "Hi there!"
			}
			if req.Message == "explode" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error": "bad"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
		case "/api/health":
			_, _ = w.Write([]byte(`{"status": "healthy", "database_connected": false, "timestamp": "t"}`))
		case "/api/stats":
			_, _ = w.Write([]byte(`{"status": "success", "stats": {"categories": 2}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSession(t *testing.T, baseURL string, ordering chat.Ordering) *chat.Session {
	t.Helper()
	client, err := chatclient.New(chatclient.Config{BaseURL: baseURL}, chatclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return chat.NewSession(client, chat.WithOrdering(ordering), chat.WithLogger(zerolog.Nop()))
}

func TestRepl_SendsLinesAndSkipsBlank(t *testing.T) {
	srv := newChatServer(t)
	session := newTestSession(t, srv.URL+"/api", chat.OrderingOverlapping)

	in := strings.NewReader("hello\n\n   \nhow are you\n:q\nnever sent\n")
	var out bytes.Buffer
	err := repl(context.Background(), session, in, &out, replOptions{render: ui.RenderOptions{Styles: ui.PlainStyles()}})
	require.NoError(t, err)

	require.Equal(t, "You: hello\nBot: Hi there!\n\nYou: how are you\nBot: re: how are you\n\n", out.String())
	require.Equal(t, 2, session.Transcript().Len())
}

func TestRepl_RetryResendsFailedDraft(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			_, _ = w.Write([]byte("not json"))
			return
		}
		_, _ = w.Write([]byte(`{"response": "finally"}`))
	}))
	defer srv.Close()
	session := newTestSession(t, srv.URL, chat.OrderingOverlapping)

	var out bytes.Buffer
	err := repl(context.Background(), session, strings.NewReader("try me\n"), &out, replOptions{render: ui.RenderOptions{Styles: ui.PlainStyles()}})
	require.NoError(t, err)
	require.Empty(t, out.String())
	require.Equal(t, "try me", session.Draft())

	fail.Store(false)
	err = repl(context.Background(), session, strings.NewReader(":retry\n"), &out, replOptions{render: ui.RenderOptions{Styles: ui.PlainStyles()}})
	require.NoError(t, err)
	require.Equal(t, "You: try me\nBot: finally\n\n", out.String())
	require.Equal(t, "", session.Draft())
}

func TestSendAll_SerializedKeepsArgumentOrder(t *testing.T) {
	srv := newChatServer(t)
	session := newTestSession(t, srv.URL+"/api", chat.OrderingSerialized)

	var out bytes.Buffer
	err := sendAll(context.Background(), session, []string{"one", "two", "three"}, &out, ui.RenderOptions{Styles: ui.PlainStyles()})
	require.NoError(t, err)
	require.Equal(t, "You: one\nBot: re: one\n\nYou: two\nBot: re: two\n\nYou: three\nBot: re: three\n", out.String())
}

func TestSendAll_OverlappingAppendsEveryReply(t *testing.T) {
	srv := newChatServer(t)
	session := newTestSession(t, srv.URL+"/api", chat.OrderingOverlapping)

	var out bytes.Buffer
	err := sendAll(context.Background(), session, []string{"a", "b", "c", "d"}, &out, ui.RenderOptions{Styles: ui.PlainStyles()})
	require.NoError(t, err)
	require.Equal(t, 4, session.Transcript().Len())
	for _, m := range []string{"a", "b", "c", "d"} {
		require.Contains(t, out.String(), "You: "+m+"\nBot: re: "+m)
	}
}

func TestSendAll_ReportsFailures(t *testing.T) {
	srv := newChatServer(t)
	session := newTestSession(t, srv.URL+"/api", chat.OrderingSerialized)

	var out bytes.Buffer
	err := sendAll(context.Background(), session, []string{"hello", "explode"}, &out, ui.RenderOptions{Styles: ui.PlainStyles()})
	require.EqualError(t, err, "1 of 2 messages failed")
	require.Equal(t, "You: hello\nBot: Hi there!\n", out.String())
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runRootApp(t, args...)
	return out, err
}

func runRootApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	root, a := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := execute(context.Background(), root, a)
	return out.String(), a, err
}

func TestRootCommand_Send(t *testing.T) {
	srv := newChatServer(t)
	out, err := runRoot(t, "send", "--api-url", srv.URL+"/api", "--log-level", "error", "hello")
	require.NoError(t, err)
	require.Contains(t, out, "You: hello")
	require.Contains(t, out, "Bot: Hi there!")
}

func TestRootCommand_SendUsesEnvironmentURL(t *testing.T) {
	srv := newChatServer(t)
	t.Setenv("CHIT_API_URL", srv.URL+"/api")
	out, err := runRoot(t, "send", "--log-level", "error", "hello")
	require.NoError(t, err)
	require.Contains(t, out, "Bot: Hi there!")
}

func TestRootCommand_HealthAndStats(t *testing.T) {
	srv := newChatServer(t)

	out, err := runRoot(t, "health", "--api-url", srv.URL+"/api", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "status: healthy")
	require.Contains(t, out, "database_connected: false")

	out, err = runRoot(t, "stats", "--api-url", srv.URL+"/api", "--log-level", "error", "-o", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "success", doc["status"])
}

func TestRootCommand_InvalidOrdering(t *testing.T) {
	_, err := runRoot(t, "send", "--ordering", "sideways", "hi")
	require.Error(t, err)
}

func TestRootCommand_FailingSendLogsAndClosesLogFile(t *testing.T) {
	srv := newChatServer(t)
	logFile := filepath.Join(t.TempDir(), "chit.log")

	out, a, err := runRootApp(t, "send", "--api-url", srv.URL+"/api", "--log-file", logFile, "hello", "explode")
	require.EqualError(t, err, "1 of 2 messages failed")
	require.Contains(t, out, "Bot: Hi there!")
	require.Nil(t, a.logCloser)

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(b), `"level":"error"`)
	require.Contains(t, string(b), `"request_id"`)
	require.Contains(t, string(b), "Error fetching chat reply")
}

func TestApp_CloseLogIsIdempotent(t *testing.T) {
	c := &countingCloser{}
	a := &app{logCloser: c}
	require.NoError(t, a.closeLog())
	require.NoError(t, a.closeLog())
	require.Equal(t, 1, c.closed)
}

type countingCloser struct {
	closed int
}

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}
