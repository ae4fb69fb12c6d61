package journal

import (
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"
)

// NewStore opens the journal backend named by storeType.
func NewStore(storeType, connectionString string, fs billy.Filesystem) (store Store, err error) {
	switch storeType {
	case "sqlite":
		sqlite, err := NewSQLiteStore(connectionString, fs)
		if err != nil {
			return nil, err
		}
		// Ensure the schema exists (idempotent), important for in-memory SQLite
		slog.Debug("journal: initializing schema")
		if err := sqlite.CreateSchema(); err != nil {
			_ = sqlite.Close()
			return nil, fmt.Errorf("failed to create journal schema: %w", err)
		}
		store = sqlite
	case "redis":
		store, err = NewRedisStore(connectionString, fs)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", storeType)
	}

	slog.Info("journal initialized", "type", storeType)
	return store, nil
}
