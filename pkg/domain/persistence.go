package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateTable(GrowingTable) (GrowingTable, error)
	UpdateTable(id string, mutator func(*GrowingTable) error) (GrowingTable, error)
	DeleteTable(id string) error
	CreatePool(PurificationPool) (PurificationPool, error)
	UpdatePool(id string, mutator func(*PurificationPool) error) (PurificationPool, error)
	DeletePool(id string) error
	CreateHarvest(HarvestRecord) (HarvestRecord, error)
	FindTable(id string) (GrowingTable, bool)
	FindPool(id string) (PurificationPool, bool)
}

// TransactionView provides read-only access to snapshot data for rules and reads.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetTable(id string) (GrowingTable, bool)
	ListTables() []GrowingTable
	GetPool(id string) (PurificationPool, bool)
	ListPools() []PurificationPool
	ListHarvests() []HarvestRecord
}
