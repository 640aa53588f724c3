// Package memory provides the in-memory transactional store used both
// directly for tests and ephemeral deployments and as the working state for
// the durable snapshot-backed drivers.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"oystercult/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// GrowingTable aliases domain.GrowingTable for in-memory persistence operations.
	GrowingTable = domain.GrowingTable
	// PurificationPool aliases domain.PurificationPool.
	PurificationPool = domain.PurificationPool
	// PoolBatch aliases domain.PoolBatch.
	PoolBatch = domain.PoolBatch
	// HarvestRecord aliases domain.HarvestRecord.
	HarvestRecord = domain.HarvestRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	tables   map[string]GrowingTable
	pools    map[string]PurificationPool
	harvests map[string]HarvestRecord
}

// Snapshot captures a point-in-time clone of the store state. It is the unit
// the durable drivers serialize and reload.
type Snapshot struct {
	Tables   map[string]GrowingTable     `json:"tables"`
	Pools    map[string]PurificationPool `json:"pools"`
	Harvests map[string]HarvestRecord    `json:"harvests"`
}

func newMemoryState() memoryState {
	return memoryState{
		tables:   make(map[string]GrowingTable),
		pools:    make(map[string]PurificationPool),
		harvests: make(map[string]HarvestRecord),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Tables:   make(map[string]GrowingTable, len(state.tables)),
		Pools:    make(map[string]PurificationPool, len(state.pools)),
		Harvests: make(map[string]HarvestRecord, len(state.harvests)),
	}
	for k, v := range state.tables {
		s.Tables[k] = cloneTable(v)
	}
	for k, v := range state.pools {
		s.Pools[k] = clonePool(v)
	}
	for k, v := range state.harvests {
		s.Harvests[k] = cloneHarvest(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Tables {
		state.tables[k] = cloneTable(v)
	}
	for k, v := range s.Pools {
		state.pools[k] = clonePool(v)
	}
	for k, v := range s.Harvests {
		state.harvests[k] = cloneHarvest(v)
	}
	return state
}

// migrateSnapshot repairs snapshots written by earlier builds: nil buckets
// become empty and pools stored without a batch list get one.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Tables == nil {
		snapshot.Tables = map[string]GrowingTable{}
	}
	if snapshot.Pools == nil {
		snapshot.Pools = map[string]PurificationPool{}
	}
	if snapshot.Harvests == nil {
		snapshot.Harvests = map[string]HarvestRecord{}
	}
	for id, pool := range snapshot.Pools {
		if pool.Batches == nil {
			pool.Batches = []PoolBatch{}
			snapshot.Pools[id] = pool
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.tables {
		cloned.tables[k] = cloneTable(v)
	}
	for k, v := range s.pools {
		cloned.pools[k] = clonePool(v)
	}
	for k, v := range s.harvests {
		cloned.harvests[k] = cloneHarvest(v)
	}
	return cloned
}

func cloneTable(t GrowingTable) GrowingTable {
	cp := t
	if t.StartDate != nil {
		d := *t.StartDate
		cp.StartDate = &d
	}
	if t.PlannedHarvestDate != nil {
		d := *t.PlannedHarvestDate
		cp.PlannedHarvestDate = &d
	}
	return cp
}

func clonePool(p PurificationPool) PurificationPool {
	cp := p
	if p.LastUVChangeDate != nil {
		d := *p.LastUVChangeDate
		cp.LastUVChangeDate = &d
	}
	cp.Batches = append([]PoolBatch(nil), p.Batches...)
	return cp
}

func cloneHarvest(h HarvestRecord) HarvestRecord { return h }

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider; nil restores the system clock.
// Transaction timestamps are taken from this provider so injected clocks
// reach the persistence layer.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListTables returns all tables within the snapshot, ordered by name then id.
func (v transactionView) ListTables() []GrowingTable {
	out := make([]GrowingTable, 0, len(v.state.tables))
	for _, t := range v.state.tables {
		out = append(out, cloneTable(t))
	}
	sortTables(out)
	return out
}

// ListPools returns all pools within the snapshot, ordered by name then id.
func (v transactionView) ListPools() []PurificationPool {
	out := make([]PurificationPool, 0, len(v.state.pools))
	for _, p := range v.state.pools {
		out = append(out, clonePool(p))
	}
	sortPools(out)
	return out
}

// ListHarvests returns all harvest records, most recent first.
func (v transactionView) ListHarvests() []HarvestRecord {
	out := make([]HarvestRecord, 0, len(v.state.harvests))
	for _, h := range v.state.harvests {
		out = append(out, cloneHarvest(h))
	}
	sortHarvests(out)
	return out
}

// FindTable retrieves a table by ID from the snapshot.
func (v transactionView) FindTable(id string) (GrowingTable, bool) {
	t, ok := v.state.tables[id]
	if !ok {
		return GrowingTable{}, false
	}
	return cloneTable(t), true
}

// FindPool retrieves a pool by ID from the snapshot.
func (v transactionView) FindPool(id string) (PurificationPool, bool) {
	p, ok := v.state.pools[id]
	if !ok {
		return PurificationPool{}, false
	}
	return clonePool(p), true
}

func sortTables(tables []GrowingTable) {
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Name != tables[j].Name {
			return tables[i].Name < tables[j].Name
		}
		return tables[i].ID < tables[j].ID
	})
}

func sortPools(pools []PurificationPool) {
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].Name != pools[j].Name {
			return pools[i].Name < pools[j].Name
		}
		return pools[i].ID < pools[j].ID
	})
}

func sortHarvests(harvests []HarvestRecord) {
	sort.Slice(harvests, func(i, j int) bool {
		if !harvests[i].HarvestedAt.Equal(harvests[j].HarvestedAt) {
			return harvests[i].HarvestedAt.After(harvests[j].HarvestedAt)
		}
		return harvests[i].ID < harvests[j].ID
	})
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules evaluate against the mutated copy; blocking violations
// abort the commit and leave the store untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetTable retrieves a table directly from committed state.
func (s *Store) GetTable(id string) (GrowingTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tables[id]
	if !ok {
		return GrowingTable{}, false
	}
	return cloneTable(t), true
}

// ListTables returns all committed tables, ordered by name then id.
func (s *Store) ListTables() []GrowingTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GrowingTable, 0, len(s.state.tables))
	for _, t := range s.state.tables {
		out = append(out, cloneTable(t))
	}
	sortTables(out)
	return out
}

// GetPool retrieves a pool directly from committed state.
func (s *Store) GetPool(id string) (PurificationPool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.pools[id]
	if !ok {
		return PurificationPool{}, false
	}
	return clonePool(p), true
}

// ListPools returns all committed pools, ordered by name then id.
func (s *Store) ListPools() []PurificationPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PurificationPool, 0, len(s.state.pools))
	for _, p := range s.state.pools {
		out = append(out, clonePool(p))
	}
	sortPools(out)
	return out
}

// ListHarvests returns all committed harvest records, most recent first.
func (s *Store) ListHarvests() []HarvestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HarvestRecord, 0, len(s.state.harvests))
	for _, h := range s.state.harvests {
		out = append(out, cloneHarvest(h))
	}
	sortHarvests(out)
	return out
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindTable exposes table lookup within the transaction scope.
func (tx *transaction) FindTable(id string) (GrowingTable, bool) {
	t, ok := tx.state.tables[id]
	if !ok {
		return GrowingTable{}, false
	}
	return cloneTable(t), true
}

// FindPool exposes pool lookup within the transaction scope.
func (tx *transaction) FindPool(id string) (PurificationPool, bool) {
	p, ok := tx.state.pools[id]
	if !ok {
		return PurificationPool{}, false
	}
	return clonePool(p), true
}

// CreateTable stores a new growing table within the transaction.
func (tx *transaction) CreateTable(t GrowingTable) (GrowingTable, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tables[t.ID]; exists {
		return GrowingTable{}, fmt.Errorf("table %q already exists", t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tables[t.ID] = cloneTable(t)
	tx.recordChange(Change{Entity: domain.EntityGrowingTable, Action: domain.ActionCreate, After: cloneTable(t)})
	return cloneTable(t), nil
}

// UpdateTable mutates a table using the provided mutator function.
func (tx *transaction) UpdateTable(id string, mutator func(*GrowingTable) error) (GrowingTable, error) {
	current, ok := tx.state.tables[id]
	if !ok {
		return GrowingTable{}, fmt.Errorf("table %q not found", id)
	}
	before := cloneTable(current)
	if err := mutator(&current); err != nil {
		return GrowingTable{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.tables[id] = cloneTable(current)
	tx.recordChange(Change{Entity: domain.EntityGrowingTable, Action: domain.ActionUpdate, Before: before, After: cloneTable(current)})
	return cloneTable(current), nil
}

// DeleteTable removes a table from the transaction state.
func (tx *transaction) DeleteTable(id string) error {
	current, ok := tx.state.tables[id]
	if !ok {
		return fmt.Errorf("table %q not found", id)
	}
	delete(tx.state.tables, id)
	tx.recordChange(Change{Entity: domain.EntityGrowingTable, Action: domain.ActionDelete, Before: cloneTable(current)})
	return nil
}

// CreatePool stores a new purification pool within the transaction.
func (tx *transaction) CreatePool(p PurificationPool) (PurificationPool, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.pools[p.ID]; exists {
		return PurificationPool{}, fmt.Errorf("pool %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	if p.Batches == nil {
		p.Batches = []PoolBatch{}
	}
	tx.state.pools[p.ID] = clonePool(p)
	tx.recordChange(Change{Entity: domain.EntityPurificationPool, Action: domain.ActionCreate, After: clonePool(p)})
	return clonePool(p), nil
}

// UpdatePool mutates a pool using the provided mutator function.
func (tx *transaction) UpdatePool(id string, mutator func(*PurificationPool) error) (PurificationPool, error) {
	current, ok := tx.state.pools[id]
	if !ok {
		return PurificationPool{}, fmt.Errorf("pool %q not found", id)
	}
	before := clonePool(current)
	if err := mutator(&current); err != nil {
		return PurificationPool{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.pools[id] = clonePool(current)
	tx.recordChange(Change{Entity: domain.EntityPurificationPool, Action: domain.ActionUpdate, Before: before, After: clonePool(current)})
	return clonePool(current), nil
}

// DeletePool removes a pool from the transaction state.
func (tx *transaction) DeletePool(id string) error {
	current, ok := tx.state.pools[id]
	if !ok {
		return fmt.Errorf("pool %q not found", id)
	}
	delete(tx.state.pools, id)
	tx.recordChange(Change{Entity: domain.EntityPurificationPool, Action: domain.ActionDelete, Before: clonePool(current)})
	return nil
}

// CreateHarvest stores a harvest record. Harvest records are append-only.
func (tx *transaction) CreateHarvest(h HarvestRecord) (HarvestRecord, error) {
	if h.ID == "" {
		h.ID = tx.store.newID()
	}
	if _, exists := tx.state.harvests[h.ID]; exists {
		return HarvestRecord{}, fmt.Errorf("harvest record %q already exists", h.ID)
	}
	h.CreatedAt = tx.now
	h.UpdatedAt = tx.now
	tx.state.harvests[h.ID] = cloneHarvest(h)
	tx.recordChange(Change{Entity: domain.EntityHarvestRecord, Action: domain.ActionCreate, After: cloneHarvest(h)})
	return cloneHarvest(h), nil
}
