package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tokenline/tokenline/capture"
)

type fieldConfig struct {
	Key   string `toml:"key"`
	Label string `toml:"label"`
}

type captureConfig struct {
	Enabled bool   `toml:"enabled"`
	Codec   string `toml:"codec"`
	Path    string `toml:"path"`
}

type config struct {
	Payload       string        `toml:"payload"`
	SendGapMS     uint32        `toml:"send_gap_ms"`
	RxBufferSize  int           `toml:"rx_buffer_size"`
	TokenCapacity int           `toml:"token_capacity"`
	LogLevel      string        `toml:"log_level"`
	Capture       captureConfig `toml:"capture"`
	Fields        []fieldConfig `toml:"field"`
}

// defaultConfig mirrors the classic firmware demo: a fixed user record and
// the four well-known fields.
func defaultConfig() config {
	return config{
		Payload: `{"user": "johndoe", "admin": false, "uid": 1000,` + "\n  " +
			`"groups": ["users", "wheel", "audio", "video"]}`,
		SendGapMS:     500,
		RxBufferSize:  100,
		TokenCapacity: 32,
		LogLevel:      "info",
		Fields: []fieldConfig{
			{Key: "user", Label: "User"},
			{Key: "admin", Label: "Admin"},
			{Key: "uid", Label: "UID"},
			{Key: "groups", Label: "Groups"},
		},
	}
}

// loadConfig reads a TOML file over the defaults. An empty path returns the
// defaults untouched.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}

	return cfg, nil
}

func (c config) validate() error {
	if strings.TrimSpace(c.Payload) == "" {
		return fmt.Errorf("config: payload must not be empty")
	}
	if c.RxBufferSize < 2 {
		return fmt.Errorf("config: rx_buffer_size %d too small", c.RxBufferSize)
	}
	if c.TokenCapacity < 1 {
		return fmt.Errorf("config: token_capacity %d too small", c.TokenCapacity)
	}

	for _, f := range c.Fields {
		if f.Key == "" || f.Label == "" {
			return fmt.Errorf("config: field entries need both key and label")
		}
	}

	if c.Capture.Enabled {
		if _, err := capture.ParseCodecType(c.Capture.Codec); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	return nil
}
