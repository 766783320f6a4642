package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/chatclient"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	// keep the developer's ~/.chit/config.yaml out of the tests
	t.Setenv("HOME", t.TempDir())
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(newFlags(t))
	require.NoError(t, err)
	require.Equal(t, chatclient.DefaultBaseURL, s.APIURL)
	require.Equal(t, time.Duration(0), s.Timeout)
	require.Equal(t, chat.OrderingOverlapping, s.Ordering)
	require.Equal(t, "info", s.LogLevel)
	require.False(t, s.Markdown)
}

func TestLoad_EnvironmentOverridesDefault(t *testing.T) {
	flags := newFlags(t)
	t.Setenv("CHIT_API_URL", "https://bot.example.com/api")
	t.Setenv("CHIT_TIMEOUT", "3s")
	t.Setenv("CHIT_PRIVACY_MODE", "true")
	t.Setenv("CHIT_ORDERING", "serialized")

	s, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "https://bot.example.com/api", s.APIURL)
	require.Equal(t, 3*time.Second, s.Timeout)
	require.True(t, s.PrivacyMode)
	require.Equal(t, chat.OrderingSerialized, s.Ordering)

	cc := s.ClientConfig()
	require.Equal(t, s.APIURL, cc.BaseURL)
	require.True(t, cc.PrivacyMode)
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	flags := newFlags(t)
	t.Setenv("CHIT_API_URL", "https://env.example.com")
	require.NoError(t, flags.Set("api-url", "https://flag.example.com"))

	s, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "https://flag.example.com", s.APIURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	flags := newFlags(t)
	path := filepath.Join(t.TempDir(), "chit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api-url: http://cfg.local:5000/api\nuser-id: ronak\nmarkdown: true\n"), 0o600))
	require.NoError(t, flags.Set("config", path))

	s, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "http://cfg.local:5000/api", s.APIURL)
	require.Equal(t, "ronak", s.UserID)
	require.True(t, s.Markdown)
}

func TestLoad_InvalidOrdering(t *testing.T) {
	flags := newFlags(t)
	require.NoError(t, flags.Set("ordering", "random"))
	_, err := Load(flags)
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHIT_TEST_DOTENV_URL=http://dotenv.local/api\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CHIT_TEST_DOTENV_URL") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	require.Equal(t, "http://dotenv.local/api", os.Getenv("CHIT_TEST_DOTENV_URL"))
}
