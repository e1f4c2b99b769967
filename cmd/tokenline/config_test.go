package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tokenline.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	require.Equal(t, uint32(500), cfg.SendGapMS)
	require.Equal(t, 100, cfg.RxBufferSize)
	require.Equal(t, 32, cfg.TokenCapacity)
	require.Len(t, cfg.Fields, 4)
	require.Contains(t, cfg.Payload, "johndoe")
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
payload = '{"name":"box","tags":["a","b"]}'
send_gap_ms = 10
log_level = "debug"

[capture]
enabled = true
codec = "zstd"
path = "session.cap"

[[field]]
key = "name"
label = "Name"

[[field]]
key = "tags"
label = "Tags"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	require.Equal(t, uint32(10), cfg.SendGapMS)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.Capture.Enabled)
	require.Equal(t, "zstd", cfg.Capture.Codec)

	// Unset keys keep their defaults.
	require.Equal(t, 100, cfg.RxBufferSize)

	// Declared fields replace the default set wholesale.
	require.Equal(t, []fieldConfig{
		{Key: "name", Label: "Name"},
		{Key: "tags", Label: "Tags"},
	}, cfg.Fields)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty payload", `payload = " "`},
		{"rx buffer too small", `rx_buffer_size = 1`},
		{"token capacity too small", `token_capacity = 0`},
		{"field missing label", "[[field]]\nkey = \"x\""},
		{"unknown capture codec", "[capture]\nenabled = true\ncodec = \"snappy\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
