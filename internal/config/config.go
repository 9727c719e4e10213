// Package config holds the settings shared by the vox binaries: flags,
// .env loading and log setup.
package config

import (
	"fmt"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	"voxhr/internal/listener"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type Common struct {
	EnvFile  string
	LogLevel string
}

func (c *Common) Bind(fs *cli.FlagSet) {
	fs.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", "info", "Log level")
}

// Setup installs the tint logger and loads the env file. A missing env
// file is not an error.
func (c *Common) Setup() error {
	level, ok := logLevelMap[strings.ToLower(c.LogLevel)]
	if !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	if err := godotenv.Load(c.EnvFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", c.EnvFile, err)
	}
	return nil
}

// Voice configures capture for the listening loop.
type Voice struct {
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	Idle          time.Duration
	WhisperModel  string
	Language      string
	Replay        []string
	Cue           string
	Duck          bool
	Speak         bool
	Disabled      bool
}

func (v *Voice) Bind(fs *cli.FlagSet) {
	def := listener.DefaultConfig()
	fs.DurationVar(&v.ListenTimeout, "listen-timeout", def.ListenTimeout, "Wait this long for speech to start (env VOX_LISTEN_TIMEOUT)")
	fs.DurationVar(&v.PhraseLimit, "phrase-limit", def.PhraseTimeLimit, "Longest phrase captured (env VOX_PHRASE_LIMIT)")
	fs.DurationVar(&v.Idle, "idle", def.IdleInterval, "Toggle check interval while idle")
	fs.StringVarP(&v.WhisperModel, "model", "m", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model (env VOX_WHISPER_MODEL)")
	fs.StringVar(&v.Language, "lang", "en", "Speech language")
	fs.StringSliceVar(&v.Replay, "replay", nil, "Audio files to transcribe instead of the microphone")
	fs.StringVar(&v.Cue, "cue", "", "mp3 played when a capture starts")
	fs.BoolVar(&v.Duck, "duck", false, "Lower other applications while listening")
	fs.BoolVar(&v.Speak, "speak", false, "Read replies aloud")
	fs.BoolVar(&v.Disabled, "no-voice", false, "Disable voice capture")
}

// ApplyEnv fills settings from the environment unless the flag was given.
func (v *Voice) ApplyEnv(fs *cli.FlagSet) error {
	durations := []struct {
		flag, env string
		dst       *time.Duration
	}{
		{"listen-timeout", "VOX_LISTEN_TIMEOUT", &v.ListenTimeout},
		{"phrase-limit", "VOX_PHRASE_LIMIT", &v.PhraseLimit},
	}
	for _, d := range durations {
		raw, ok := os.LookupEnv(d.env)
		if !ok || fs.Changed(d.flag) {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if raw, ok := os.LookupEnv("VOX_WHISPER_MODEL"); ok && !fs.Changed("model") {
		v.WhisperModel = raw
	}
	return nil
}

func (v Voice) Listener() listener.Config {
	return listener.Config{
		ListenTimeout:   v.ListenTimeout,
		PhraseTimeLimit: v.PhraseLimit,
		IdleInterval:    v.Idle,
	}
}

// Assistant configures the chat completion backend.
type Assistant struct {
	APIKey  string
	Model   string
	Proxy   string
	Timeout time.Duration
}

func (a *Assistant) Bind(fs *cli.FlagSet) {
	fs.StringVarP(&a.Proxy, "proxy", "p", "", "Socks proxy address for the assistant API")
	fs.StringVar(&a.Model, "chat-model", "", "Chat model (env OPENAI_MODEL)")
	fs.DurationVar(&a.Timeout, "api-timeout", 120*time.Second, "Assistant API timeout")
}

func (a *Assistant) ApplyEnv(fs *cli.FlagSet) error {
	a.APIKey = os.Getenv("OPENAI_API_KEY")
	if a.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}
	if m, ok := os.LookupEnv("OPENAI_MODEL"); ok && !fs.Changed("chat-model") {
		a.Model = m
	}
	return nil
}
