package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// MemoryPath selects an ephemeral in-process database.
const MemoryPath = ":memory:"

// ParseDescriptor routes a connection descriptor to an adapter config
// through the registry. With the bundled adapters registered:
//
//	postgres://..., postgresql://...   -> postgres, DSN is the descriptor
//	sqlite:<path>, sqlite://<path>     -> sqlite
//	duckdb:<path>, duckdb://<path>     -> duckdb
//	:memory:, ./x, /x, x.db            -> sqlite
//
// A scheme:// descriptor no adapter claims is an *UnknownAdapterError.
func ParseDescriptor(descriptor string) (core.AdapterConfig, error) {
	d := strings.TrimSpace(descriptor)
	if d == "" {
		return core.AdapterConfig{}, fmt.Errorf("empty database descriptor")
	}

	if scheme, rest, ok := strings.Cut(d, "://"); ok && isScheme(scheme) {
		typ, url, err := route(strings.ToLower(scheme), "")
		if err != nil {
			return core.AdapterConfig{}, err
		}
		if url {
			return core.AdapterConfig{Type: typ, DSN: d}, nil
		}
		return core.AdapterConfig{Type: typ, Path: embeddedPath(rest)}, nil
	}

	if prefix, rest, ok := strings.Cut(d, ":"); ok && isScheme(prefix) {
		typ, _, err := route("", strings.ToLower(prefix))
		if err != nil {
			return core.AdapterConfig{}, err
		}
		if typ != "" {
			return core.AdapterConfig{Type: typ, Path: embeddedPath(rest)}, nil
		}
	}

	typ, _, err := route("", "")
	if err != nil {
		return core.AdapterConfig{}, err
	}
	return core.AdapterConfig{Type: typ, Path: d}, nil
}

func embeddedPath(p string) string {
	if p == "" {
		return MemoryPath
	}
	return p
}

// isScheme reports whether s is a URL scheme rather than, say, a Windows
// drive letter.
func isScheme(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// Open parses descriptor, creates the matching adapter and opens it. Pool
// settings and adapter params are taken from base.
func Open(ctx context.Context, descriptor string, base core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	cfg, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	cfg.MaxOpenConns = base.MaxOpenConns
	cfg.MaxIdleConns = base.MaxIdleConns
	cfg.ConnMaxLifetime = base.ConnMaxLifetime
	cfg.ConnectTimeout = base.ConnectTimeout
	cfg.Params = base.Params

	a, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Open(ctx, cfg); err != nil {
		return nil, err
	}
	return a, nil
}
