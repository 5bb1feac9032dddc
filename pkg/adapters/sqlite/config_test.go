package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name:  "typed values",
			input: map[string]any{"busy_timeout": 5000, "journal_mode": "wal"},
			want:  &Params{BusyTimeout: 5000, JournalMode: "wal"},
		},
		{
			name:  "string values from the environment",
			input: map[string]any{"busy_timeout": "250"},
			want:  &Params{BusyTimeout: 250},
		},
		{
			name:    "unknown key",
			input:   map[string]any{"cache": "shared"},
			wantErr: true,
		},
		{
			name:    "unknown journal mode",
			input:   map[string]any{"journal_mode": "sideways"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			input:   map[string]any{"busy_timeout": -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
