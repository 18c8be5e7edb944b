package config

import (
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var decoder = jsoniter.Config{
	DisallowUnknownFields: true,
}.Froze()

// Load reads a JSON document on top of the defaults. Keys that aren't presented keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return Parse(data)
}

// Parse does the same as Load, but takes the document itself.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decoder.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that would make the server unusable.
func (c *Config) Validate() error {
	switch {
	case c.NET.ReadBufferSize <= 0:
		return errors.New("config: NET.ReadBufferSize must be positive")
	case c.NET.WriteBufferSize <= 0:
		return errors.New("config: NET.WriteBufferSize must be positive")
	case c.NET.Workers <= 0:
		return errors.New("config: NET.Workers must be positive")
	case c.NET.MaxEvents <= 0:
		return errors.New("config: NET.MaxEvents must be positive")
	case len(c.Static.Root) == 0:
		return errors.New("config: Static.Root must not be empty")
	case c.Static.MaxPathLength <= len(c.Static.Root)+1:
		return errors.New("config: Static.MaxPathLength leaves no room for a request path")
	case c.Headers.MaxNumber < 0:
		return errors.New("config: Headers.MaxNumber must not be negative")
	}

	return nil
}
