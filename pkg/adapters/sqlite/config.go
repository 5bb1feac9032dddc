package sqlite

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// BusyTimeout is how long, in milliseconds, a statement waits on a
	// locked database before failing.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// JournalMode sets the journal mode (e.g. "wal", "delete").
	JournalMode string `mapstructure:"journal_mode"`
}

var journalModes = map[string]bool{
	"delete": true, "truncate": true, "persist": true, "memory": true, "wal": true, "off": true,
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
		return nil, fmt.Errorf("invalid sqlite params: %w", err)
	}

	if p.BusyTimeout < 0 {
		return nil, fmt.Errorf("invalid sqlite params: busy_timeout must not be negative")
	}
	if p.JournalMode != "" && !journalModes[p.JournalMode] {
		return nil, fmt.Errorf("invalid sqlite params: unknown journal_mode %q", p.JournalMode)
	}
	return p, nil
}
