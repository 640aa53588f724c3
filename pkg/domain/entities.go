// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by oystercult.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityGrowingTable identifies a growing table record.
	EntityGrowingTable EntityType = "growing_table"
	// EntityPurificationPool identifies a purification pool record.
	EntityPurificationPool EntityType = "purification_pool"
	// EntityHarvestRecord identifies a harvest record.
	EntityHarvestRecord EntityType = "harvest_record"
)

// LotStage represents the canonical lifecycle states of a table lot.
type LotStage string

// Canonical lot stages. A harvest resets the table to StageEmpty; the
// harvest itself is captured as a HarvestRecord rather than a terminal stage.
const (
	// StageEmpty indicates a table with no active lot.
	StageEmpty LotStage = "empty"
	// StageSeeded indicates a freshly seeded lot that has not been resampled yet.
	StageSeeded  LotStage = "seeded"
	StageGrowing LotStage = "growing"
	// StageReadyOrOverdue indicates the lot reached its target calibre or
	// overran its planned harvest date.
	StageReadyOrOverdue LotStage = "ready_or_overdue"
)

// BatchState describes where a pool batch sits in its purification cycle.
// It is always recomputed from the wall clock, never stored.
type BatchState string

// Canonical pool batch states.
const (
	BatchEntered      BatchState = "entered"
	BatchPurifying    BatchState = "purifying"
	BatchReadyForExit BatchState = "ready_for_exit"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrowingTable represents one physical table holding at most one active lot.
type GrowingTable struct {
	Base
	Name                 string     `json:"name"`
	Zone                 string     `json:"zone"`
	CapacityUnits        int        `json:"capacity_units"`
	FilledUnits          int        `json:"filled_units"`
	Stage                LotStage   `json:"stage"`
	CurrentCalibre       string     `json:"current_calibre"`
	TargetCalibre        string     `json:"target_calibre"`
	StartDate            *time.Time `json:"start_date"`
	PlannedHarvestDate   *time.Time `json:"planned_harvest_date"`
	MortalityRatePercent float64    `json:"mortality_rate_percent"`
}

// HasActiveLot reports whether the table currently carries a seeded lot.
func (t GrowingTable) HasActiveLot() bool {
	return t.Stage != StageEmpty && t.StartDate != nil
}

// PoolBatch is one product batch undergoing purification inside a pool.
type PoolBatch struct {
	ID                        string    `json:"id"`
	ProductName               string    `json:"product_name"`
	QuantityKg                float64   `json:"quantity_kg"`
	EntryTimestamp            time.Time `json:"entry_timestamp"`
	RequiredPurificationHours float64   `json:"required_purification_hours"`
}

// PurificationPool represents a water basin purifying one or more batches
// concurrently.
type PurificationPool struct {
	Base
	Name                string      `json:"name"`
	CapacityKg          float64     `json:"capacity_kg"`
	WaterQualityPercent float64     `json:"water_quality_percent"`
	OxygenPercent       float64     `json:"oxygen_percent"`
	TemperatureC        float64     `json:"temperature_c"`
	UVLampHours         float64     `json:"uv_lamp_hours"`
	LastUVChangeDate    *time.Time  `json:"last_uv_change_date"`
	Batches             []PoolBatch `json:"batches"`
}

// StockedKg returns the total quantity currently occupying the pool.
func (p PurificationPool) StockedKg() float64 {
	var total float64
	for _, b := range p.Batches {
		total += b.QuantityKg
	}
	return total
}

// FindBatch returns the batch with the given id, if present.
func (p PurificationPool) FindBatch(id string) (PoolBatch, bool) {
	for _, b := range p.Batches {
		if b.ID == id {
			return b, true
		}
	}
	return PoolBatch{}, false
}

// HarvestRecord is the audit trail entry emitted when a lot leaves a table.
type HarvestRecord struct {
	Base
	TableID       string    `json:"table_id"`
	TableName     string    `json:"table_name"`
	Calibre       string    `json:"calibre"`
	TargetCalibre string    `json:"target_calibre"`
	QuantityUnits int       `json:"quantity_units"`
	Forced        bool      `json:"forced"`
	SeededAt      time.Time `json:"seeded_at"`
	HarvestedAt   time.Time `json:"harvested_at"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
