// Package storage provides the interchangeable table backends: a single JSON
// file, a SQLite database, and a remote hierarchical key-value database.
// All three implement table.Store with identical semantics.
package storage

import (
	"fmt"

	"github.com/matsen/tablebot/internal/config"
	"github.com/matsen/tablebot/internal/table"
)

var (
	_ table.Store = (*FileStore)(nil)
	_ table.Store = (*SQLiteStore)(nil)
	_ table.Store = (*RemoteStore)(nil)
)

// Open returns the backend selected by cfg and a cleanup function that
// releases it.
func Open(cfg *config.Config) (table.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.DataFile), noop, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendRemote:
		if cfg.RemoteURL == "" {
			return nil, nil, fmt.Errorf("backend %q requires remote_url", config.BackendRemote)
		}
		opts := []RemoteOption{WithRateLimit(cfg.RemoteRateLimit)}
		if cfg.RemoteSecret != "" {
			opts = append(opts, WithSecret(cfg.RemoteSecret))
		}
		return NewRemoteStore(cfg.RemoteURL, opts...), noop, nil

	default:
		return nil, nil, config.ValidateBackend(cfg.Backend)
	}
}
