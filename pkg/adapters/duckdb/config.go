package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Threads caps the worker threads of the database.
	Threads int `mapstructure:"threads"`

	// MemoryLimit caps memory use (e.g. "4GB").
	MemoryLimit string `mapstructure:"memory_limit"`

	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings applied with SET GLOBAL when the database is opened.
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes the adapter params map. Unknown keys are rejected.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}

	if p.Threads < 0 {
		return nil, fmt.Errorf("invalid duckdb params: threads must not be negative")
	}
	for _, ext := range p.Extensions {
		if !schema.ValidIdentifier(ext) {
			return nil, fmt.Errorf("invalid duckdb params: invalid extension name %q", ext)
		}
	}
	for k := range p.Settings {
		if !schema.ValidIdentifier(k) {
			return nil, fmt.Errorf("invalid duckdb params: invalid setting name %q", k)
		}
	}
	return p, nil
}
