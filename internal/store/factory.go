package store

import (
	"fmt"

	applog "finboard/internal/log"
)

// Backend identifies a selection store implementation.
type Backend string

const (
	MemoryBackend Backend = "memory"
	SQLiteBackend Backend = "sqlite"
)

func (b Backend) IsValid() bool {
	switch b {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// New builds the configured selection store. The cleanup func may be nil.
func New(backend Backend, sqlitePath string, logger *applog.Logger) (SelectionStore, CleanupFunc, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore)
	}

	switch backend {
	case SQLiteBackend:
		if sqlitePath == "" {
			return nil, nil, fmt.Errorf("sqlite path is required for the sqlite selection store")
		}
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite selection store: %w", err)
		}
		logger.Info("initialized sqlite selection store", "db_path", sqlitePath)
		return s, s.Close, nil
	case MemoryBackend:
		logger.Info("initialized in-memory selection store")
		return NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported selection store backend: %s", backend)
	}
}
