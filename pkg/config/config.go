package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/chit/pkg/chat"
	"github.com/go-go-golems/chit/pkg/chatclient"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName   = "chit"
	EnvPrefix = "CHIT"
)

// Settings is everything the commands need, resolved once at startup.
type Settings struct {
	APIURL      string
	Timeout     time.Duration
	UserID      string
	PrivacyMode bool
	Ordering    chat.Ordering
	Markdown    bool
	LogLevel    string
	LogFile     string
}

// ClientConfig returns the chat client part of the settings.
func (s Settings) ClientConfig() chatclient.Config {
	return chatclient.Config{
		BaseURL:     s.APIURL,
		Timeout:     s.Timeout,
		UserID:      s.UserID,
		PrivacyMode: s.PrivacyMode,
	}
}

// AddFlags registers the settings as flags. Every flag can also be set with
// CHIT_<FLAG> (dashes become underscores) or in the config file.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file (default $HOME/.chit/config.yaml)")
	flags.String("api-url", chatclient.DefaultBaseURL, "Base URL of the chat backend")
	flags.Duration("timeout", 0, "Per-request timeout, 0 waits forever")
	flags.String("user-id", "", "User id forwarded to the backend")
	flags.Bool("privacy-mode", false, "Ask the backend not to store the conversation")
	flags.String("ordering", string(chat.OrderingOverlapping), "Concurrent send ordering: overlapping or serialized")
	flags.Bool("markdown", false, "Render bot replies as markdown")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
}

// LoadDotEnv loads .env style files into the environment. Missing files are
// skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// NewViper builds a viper instance bound to flags, the CHIT_ environment
// and the optional config file.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, "."+AppName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// FromViper reads and validates the settings from v.
func FromViper(v *viper.Viper) (Settings, error) {
	ordering, ok := chat.ParseOrdering(v.GetString("ordering"))
	if !ok {
		return Settings{}, errors.Errorf("invalid ordering %q: want overlapping or serialized", v.GetString("ordering"))
	}
	timeout := v.GetDuration("timeout")
	if timeout < 0 {
		return Settings{}, errors.Errorf("invalid timeout %s", timeout)
	}

	return Settings{
		APIURL:      strings.TrimSpace(v.GetString("api-url")),
		Timeout:     timeout,
		UserID:      v.GetString("user-id"),
		PrivacyMode: v.GetBool("privacy-mode"),
		Ordering:    ordering,
		Markdown:    v.GetBool("markdown"),
		LogLevel:    v.GetString("log-level"),
		LogFile:     v.GetString("log-file"),
	}, nil
}

// Load is NewViper followed by FromViper.
func Load(flags *pflag.FlagSet) (Settings, error) {
	v, err := NewViper(flags)
	if err != nil {
		return Settings{}, err
	}
	return FromViper(v)
}
