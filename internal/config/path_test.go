package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RECKLESS_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/db/reckless.db", want: filepath.Join(home, "db", "reckless.db")},
		{name: "env var", in: "$RECKLESS_TEST_DIR/reckless.db", want: "/srv/data/reckless.db"},
		{name: "absolute", in: "/tmp/reckless.db", want: "/tmp/reckless.db"},
		{name: "tilde mid-path untouched", in: "/tmp/~user", want: "/tmp/~user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestXDGDirectories(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, "/xdg/config/reckless", ConfigDir())
	assert.Equal(t, "/xdg/data/reckless", DataDir())
	assert.Equal(t, "/xdg/data/reckless/reckless.db", DefaultDatabasePath())
}

func TestDefaultDirectories(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "reckless"), ConfigDir())
	assert.Equal(t, filepath.Join(home, ".local", "share", "reckless", "reckless.db"), DefaultDatabasePath())
}
