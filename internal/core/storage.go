package core

import (
	"fmt"
	"os"

	"oystercult/internal/infra/persistence/memory"
	"oystercult/internal/infra/persistence/sqlite"
	"oystercult/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// NewMemoryStore constructs the in-memory store used directly and as the
// working state of the durable drivers.
func NewMemoryStore(engine *RulesEngine) *memory.Store {
	return memory.NewStore(engine)
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	OYSTERCULT_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	OYSTERCULT_SQLITE_PATH: path to sqlite file (default ./oystercult.db)
//	OYSTERCULT_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("OYSTERCULT_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("OYSTERCULT_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("OYSTERCULT_POSTGRES_DSN")
		return NewPostgresStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
