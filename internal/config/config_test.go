package config

import (
	"testing"
	"time"

	cli "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceDefaults(t *testing.T) {
	var v Voice
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	v.Bind(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, v.ApplyEnv(fs))

	lc := v.Listener()
	assert.Equal(t, 5*time.Second, lc.ListenTimeout)
	assert.Equal(t, 10*time.Second, lc.PhraseTimeLimit)
	assert.Equal(t, 100*time.Millisecond, lc.IdleInterval)
}

func TestVoiceEnvDoesNotOverrideFlags(t *testing.T) {
	t.Setenv("VOX_LISTEN_TIMEOUT", "3s")
	t.Setenv("VOX_PHRASE_LIMIT", "7s")
	t.Setenv("VOX_WHISPER_MODEL", "/models/tiny.bin")

	var v Voice
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	v.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--phrase-limit", "2s", "--replay", "a.wav,b.ogg"}))
	require.NoError(t, v.ApplyEnv(fs))

	assert.Equal(t, 3*time.Second, v.ListenTimeout)
	assert.Equal(t, 2*time.Second, v.PhraseLimit)
	assert.Equal(t, "/models/tiny.bin", v.WhisperModel)
	assert.Equal(t, []string{"a.wav", "b.ogg"}, v.Replay)
}

func TestVoiceBadEnv(t *testing.T) {
	t.Setenv("VOX_LISTEN_TIMEOUT", "soon")

	var v Voice
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	v.Bind(fs)
	require.NoError(t, fs.Parse(nil))
	assert.ErrorContains(t, v.ApplyEnv(fs), "VOX_LISTEN_TIMEOUT")
}

func TestAssistantEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	var a Assistant
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	a.Bind(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Error(t, a.ApplyEnv(fs))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	require.NoError(t, a.ApplyEnv(fs))
	assert.Equal(t, "sk-test", a.APIKey)
	assert.Equal(t, "gpt-test", a.Model)
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	c := Common{LogLevel: "loud", EnvFile: "does-not-exist.env"}
	assert.Error(t, c.Setup())
}
