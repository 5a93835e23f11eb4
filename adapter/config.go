// Package adapter implements the DAP session: the request dispatcher, the
// Running/Paused state machine with its nested pause loop, and the stdio
// and TCP serving front ends.
package adapter

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the optional server configuration, loaded from fabledbg.toml.
// Command-line flags override anything set here.
type Config struct {
	Server ServerConfig `toml:"server,omitempty"`
	Story  StoryConfig  `toml:"story,omitempty"`
}

type ServerConfig struct {
	Transport string `toml:"transport,omitempty"` // "stdio" or "tcp"
	Port      int    `toml:"port,omitempty"`
	LogLevel  string `toml:"log_level,omitempty"`
}

type StoryConfig struct {
	Dialect string `toml:"dialect,omitempty"`
}

func parseConfig(f io.Reader) (*Config, error) {
	var out Config
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadConfigFromFile reads a TOML config. A missing file returns the
// zero config so the adapter runs with defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return parseConfig(f)
}
