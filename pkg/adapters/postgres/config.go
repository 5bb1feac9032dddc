package postgres

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds PostgreSQL-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// SearchPath sets the schema search path of every connection.
	SearchPath string `mapstructure:"search_path"`

	// Connection fields, used only when no DSN is given.
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
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
		return nil, fmt.Errorf("invalid postgres params: %w", err)
	}
	return p, nil
}
