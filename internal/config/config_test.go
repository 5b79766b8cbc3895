package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad(t *testing.T) {
	t.Run("Defaults fill what the file leaves out", func(t *testing.T) {
		// Given: a config file with only the username and nakama host
		path := filepath.Join(t.TempDir(), "config.yml")
		err := os.WriteFile(path, []byte("username: alice\nnakama:\n  host: game.example.com\n"), 0o600)
		require.NoError(t, err)

		// When: loading it
		conf := MustLoad(path)

		// Then: unspecified values take their defaults
		assert.Equal(t, "alice", conf.Username)
		assert.Equal(t, "game.example.com", conf.Nakama.Host)
		assert.Equal(t, "7350", conf.Nakama.Port)
		assert.Equal(t, "defaultkey", conf.Nakama.ServerKey)
		assert.Equal(t, "classic", conf.Match.Mode)
		assert.Equal(t, 30, conf.Match.TurnSeconds)
		assert.Equal(t, 2*time.Second, conf.Match.GraceDelay)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Missing file panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
		})
	})
}

func TestNakama_URLs(t *testing.T) {
	t.Run("Plain connection", func(t *testing.T) {
		conf := Nakama{Host: "localhost", Port: "7350"}

		assert.Equal(t, "http://localhost:7350", conf.HTTPURL())
		assert.Equal(t, "ws://localhost:7350/ws?lang=en&status=true&token=abc", conf.SocketURL("abc"))
	})

	t.Run("Secure connection", func(t *testing.T) {
		conf := Nakama{Host: "game.example.com", Port: "443", Secure: true}

		assert.Equal(t, "https://game.example.com:443", conf.HTTPURL())
		assert.Contains(t, conf.SocketURL("abc"), "wss://game.example.com:443/ws?")
	})
}
