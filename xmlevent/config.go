package xmlevent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the set of enumerated options from spec.md §6, mirroring
// reader::config::ParserConfig in the original. Unlike the original, it
// is loadable from a YAML file (gopkg.in/yaml.v3, promoted here from the
// teacher's indirect dependency), since a complete CLI needs a way for a
// caller to set these without recompiling.
type Config struct {
	// TrimWhitespace, when true, trims Characters event content and
	// discards all-whitespace runs entirely.
	TrimWhitespace bool `yaml:"trim_whitespace"`
	// WhitespaceToCharacters, when true, emits all-whitespace runs as
	// Characters events rather than Whitespace events.
	WhitespaceToCharacters bool `yaml:"whitespace_to_characters"`
	// CDataToCharacters, when true, merges CDATA content into the
	// surrounding Characters run instead of emitting a CData event.
	CDataToCharacters bool `yaml:"cdata_to_characters"`
	// IgnoreComments, when true, suppresses Comment events.
	IgnoreComments bool `yaml:"ignore_comments"`
	// CoalesceCharacters, when true, merges adjacent Characters/CData/
	// ignored-Comment runs into a single event.
	CoalesceCharacters bool `yaml:"coalesce_characters"`
}

// DefaultConfig returns the original's default behavior: nothing is
// trimmed, merged, or suppressed.
func DefaultConfig() Config {
	return Config{}
}

// LoadConfig reads a YAML config file at path, following the same
// "open file, decode into a small struct" shape as
// tokenizer.NewTokenizer's vocab loading.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file: %w", err)
	}
	return cfg, nil
}
