package mandays

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultsTOML string

// DefaultConfiguration returns the built-in rate tables.
func DefaultConfiguration() Configuration {
	cfg, err := ParseTOML(defaultsTOML)
	if err != nil {
		panic(fmt.Sprintf("mandays: built-in defaults are invalid: %v", err))
	}
	return cfg
}

// ParseTOML decodes and validates a configuration written in TOML.
func ParseTOML(doc string) (Configuration, error) {
	var cfg Configuration
	if _, err := toml.Decode(doc, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode configuration toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// WriteTOML encodes cfg as TOML.
func WriteTOML(w io.Writer, cfg Configuration) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode configuration toml: %w", err)
	}
	return nil
}
