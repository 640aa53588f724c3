package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"oystercult/pkg/domain"
)

// ServiceOption customises service construction.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	scale   domain.Scale
	bands   domain.ThresholdBands
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		scale:   domain.DefaultOysterScale(),
		bands:   domain.DefaultThresholdBands(),
	}
}

// WithClock injects a time source for derived computations and timestamps.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) { o.clock = clock }
}

// WithLogger injects a structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder injects an audit sink for mutating operations.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder injects a metrics sink for operation outcomes.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer injects a tracer opening spans around operations.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithScale overrides the calibration scale.
func WithScale(scale domain.Scale) ServiceOption {
	return func(o *serviceOptions) {
		if scale.Len() > 0 {
			o.scale = scale
		}
	}
}

// WithThresholds overrides the threshold banding table.
func WithThresholds(bands domain.ThresholdBands) ServiceOption {
	return func(o *serviceOptions) { o.bands = bands }
}

// nowFuncSetter is implemented by stores that accept an injected clock so
// persistence timestamps line up with service timestamps.
type nowFuncSetter interface {
	SetNowFunc(func() time.Time)
}

// Service exposes the transactional operations and derived read models of
// the capacity engine.
type Service struct {
	store   domain.PersistentStore
	scale   domain.Scale
	bands   domain.ThresholdBands
	nowFn   func() time.Time
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.clock != nil {
		if setter, ok := store.(nowFuncSetter); ok {
			setter.SetNowFunc(options.clock.Now)
		}
	}
	return &Service{
		store:   store,
		scale:   options.scale,
		bands:   options.bands,
		nowFn:   selectNowFunc(store, options.clock),
		logger:  options.logger,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// given rules engine. A nil engine gets the default invariant rules.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Scale returns the configured calibration scale.
func (s *Service) Scale() domain.Scale { return s.scale }

// Thresholds returns the configured banding table.
func (s *Service) Thresholds() domain.ThresholdBands { return s.bands }

// Now returns the service's current time in UTC.
func (s *Service) Now() time.Time { return s.nowFn() }

func newServiceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ErrNotFound is returned when an operation targets a missing entity.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

type auditTarget struct {
	entity EntityType
	action Action
}

// auditTargets maps audited operations to the entity and action recorded in
// the audit trail. Operations absent from the map are not audited.
var auditTargets = map[string]auditTarget{
	"create_table":           {entity: EntityGrowingTable, action: ActionCreate},
	"update_table":           {entity: EntityGrowingTable, action: ActionUpdate},
	"delete_table":           {entity: EntityGrowingTable, action: ActionDelete},
	"seed_table":             {entity: EntityGrowingTable, action: ActionUpdate},
	"resample_table":         {entity: EntityGrowingTable, action: ActionUpdate},
	"harvest_table":          {entity: EntityHarvestRecord, action: ActionCreate},
	"create_pool":            {entity: EntityPurificationPool, action: ActionCreate},
	"update_pool":            {entity: EntityPurificationPool, action: ActionUpdate},
	"delete_pool":            {entity: EntityPurificationPool, action: ActionDelete},
	"enter_batch":            {entity: EntityPurificationPool, action: ActionUpdate},
	"exit_batch":             {entity: EntityPurificationPool, action: ActionUpdate},
	"record_pool_conditions": {entity: EntityPurificationPool, action: ActionUpdate},
	"replace_uv_lamp":        {entity: EntityPurificationPool, action: ActionUpdate},
}

// run wraps a mutating operation with tracing, metrics, audit, and logging.
// fn returns the id of the primary entity touched, for the audit trail.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()

	entityID, err := fn(ctx)
	duration := time.Since(started)

	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	if target, ok := auditTargets[op]; ok {
		entry := AuditEntry{
			Operation: op,
			Entity:    target.entity,
			Action:    target.action,
			EntityID:  entityID,
			Status:    AuditStatusSuccess,
			Duration:  duration,
			Timestamp: s.nowFn(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}

	if err != nil {
		s.logger.Error("operation failed", "op", op, "entity_id", entityID, "error", err)
		return err
	}
	s.logger.Debug("operation completed", "op", op, "entity_id", entityID, "duration", duration)
	return nil
}

// logWarnings surfaces non-blocking rule violations.
func (s *Service) logWarnings(op string, res Result) {
	for _, v := range res.Violations {
		if v.Severity == SeverityBlock {
			continue
		}
		s.logger.Warn("rule violation", "op", op, "rule", v.Rule, "severity", v.Severity,
			"entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
	}
}

// CreateTable persists a new growing table. New tables always start empty.
func (s *Service) CreateTable(ctx context.Context, table GrowingTable) (GrowingTable, Result, error) {
	var created GrowingTable
	var res Result
	err := s.run(ctx, "create_table", func(ctx context.Context) (string, error) {
		if table.Name == "" {
			return "", fmt.Errorf("table name is required")
		}
		if table.CapacityUnits <= 0 {
			return "", fmt.Errorf("table capacity must be positive, got %d", table.CapacityUnits)
		}
		table.Stage = StageEmpty
		table.FilledUnits = 0
		table.CurrentCalibre = ""
		table.TargetCalibre = ""
		table.StartDate = nil
		table.PlannedHarvestDate = nil
		table.MortalityRatePercent = 0
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var txErr error
			created, txErr = tx.CreateTable(table)
			return txErr
		})
		return created.ID, err
	})
	s.logWarnings("create_table", res)
	return created, res, err
}

// UpdateTable mutates table metadata using the provided mutator.
func (s *Service) UpdateTable(ctx context.Context, id string, mutator func(*GrowingTable) error) (GrowingTable, Result, error) {
	var updated GrowingTable
	var res Result
	err := s.run(ctx, "update_table", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.FindTable(id); !ok {
				return ErrNotFound{Entity: EntityGrowingTable, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateTable(id, mutator)
			return txErr
		})
		return id, err
	})
	s.logWarnings("update_table", res)
	return updated, res, err
}

// DeleteTable removes an empty table. Tables carrying an active lot must be
// harvested first.
func (s *Service) DeleteTable(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_table", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table, ok := tx.FindTable(id)
			if !ok {
				return ErrNotFound{Entity: EntityGrowingTable, ID: id}
			}
			if table.HasActiveLot() {
				return domain.TableNotEmptyError{TableID: id, Stage: table.Stage}
			}
			return tx.DeleteTable(id)
		})
		return id, err
	})
	return res, err
}

// SeedTableInput carries the parameters for starting a new lot.
type SeedTableInput struct {
	Units              int       `json:"units"`
	InitialCalibre     string    `json:"initial_calibre"`
	TargetCalibre      string    `json:"target_calibre"`
	PlannedHarvestDate time.Time `json:"planned_harvest_date"`
}

// SeedTable starts a new lot on an empty table.
func (s *Service) SeedTable(ctx context.Context, id string, input SeedTableInput) (GrowingTable, Result, error) {
	var seeded GrowingTable
	var res Result
	err := s.run(ctx, "seed_table", func(ctx context.Context) (string, error) {
		initialIdx, err := s.scale.IndexOf(input.InitialCalibre)
		if err != nil {
			return id, err
		}
		targetIdx, err := s.scale.IndexOf(input.TargetCalibre)
		if err != nil {
			return id, err
		}
		if targetIdx <= initialIdx {
			return id, fmt.Errorf("target calibre %s must sit above initial calibre %s on the scale",
				input.TargetCalibre, input.InitialCalibre)
		}
		if input.Units <= 0 {
			return id, fmt.Errorf("seed units must be positive, got %d", input.Units)
		}
		now := s.nowFn()
		if !input.PlannedHarvestDate.After(now) {
			return id, fmt.Errorf("planned harvest date %s must be in the future",
				input.PlannedHarvestDate.Format(time.RFC3339))
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table, ok := tx.FindTable(id)
			if !ok {
				return ErrNotFound{Entity: EntityGrowingTable, ID: id}
			}
			if table.HasActiveLot() || table.Stage != StageEmpty {
				return domain.TableNotEmptyError{TableID: id, Stage: table.Stage}
			}
			if input.Units > table.CapacityUnits {
				return fmt.Errorf("seed units %d exceed table capacity %d", input.Units, table.CapacityUnits)
			}
			var txErr error
			seeded, txErr = tx.UpdateTable(id, func(t *GrowingTable) error {
				start := now
				planned := input.PlannedHarvestDate.UTC()
				t.Stage = StageSeeded
				t.FilledUnits = input.Units
				t.CurrentCalibre = input.InitialCalibre
				t.TargetCalibre = input.TargetCalibre
				t.StartDate = &start
				t.PlannedHarvestDate = &planned
				t.MortalityRatePercent = 0
				return nil
			})
			return txErr
		})
		return id, err
	})
	s.logWarnings("seed_table", res)
	return seeded, res, err
}

// ResampleInput carries one field sampling of an active lot.
type ResampleInput struct {
	Calibre              string  `json:"calibre"`
	MortalityRatePercent float64 `json:"mortality_rate_percent"`
}

// ResampleTable records a calibre and mortality sampling on an active lot and
// advances the stored stage. A sample below the previous calibre is legal and
// moves a ready lot back to growing; it is logged for follow-up.
func (s *Service) ResampleTable(ctx context.Context, id string, input ResampleInput) (GrowingTable, Result, error) {
	var updated GrowingTable
	var res Result
	err := s.run(ctx, "resample_table", func(ctx context.Context) (string, error) {
		if _, err := s.scale.IndexOf(input.Calibre); err != nil {
			return id, err
		}
		if input.MortalityRatePercent < 0 || input.MortalityRatePercent > 100 {
			return id, fmt.Errorf("mortality rate %.2f%% out of range [0,100]", input.MortalityRatePercent)
		}
		now := s.nowFn()
		var regressedFrom string
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table, ok := tx.FindTable(id)
			if !ok {
				return ErrNotFound{Entity: EntityGrowingTable, ID: id}
			}
			if !table.HasActiveLot() {
				return domain.NoActiveLotError{TableID: id}
			}
			prevIdx, err := s.scale.IndexOf(table.CurrentCalibre)
			if err == nil {
				if newIdx, _ := s.scale.IndexOf(input.Calibre); newIdx < prevIdx {
					regressedFrom = table.CurrentCalibre
				}
			}
			updated, err = tx.UpdateTable(id, func(t *GrowingTable) error {
				t.CurrentCalibre = input.Calibre
				t.MortalityRatePercent = input.MortalityRatePercent
				t.Stage = s.stageAfterSample(*t, now)
				return nil
			})
			return err
		})
		if err == nil && regressedFrom != "" {
			s.logger.Warn("calibre regression sampled", "table_id", id,
				"previous", regressedFrom, "sampled", input.Calibre)
		}
		return id, err
	})
	s.logWarnings("resample_table", res)
	return updated, res, err
}

// stageAfterSample derives the stored stage for a freshly sampled lot.
func (s *Service) stageAfterSample(t GrowingTable, now time.Time) LotStage {
	ratio, err := TableCalibreProgress(t, s.scale)
	if err != nil {
		ratio = 0
	}
	progress, err := TableTimeProgress(t, now)
	if err != nil {
		progress = 0
	}
	if ratio >= 100 || progress > 100 {
		return StageReadyOrOverdue
	}
	return StageGrowing
}

// HarvestTable closes out a table's lot, emits a harvest record, and resets
// the table to empty. An unforced harvest requires the lot to be ready or
// overdue; force overrides and flags the record.
func (s *Service) HarvestTable(ctx context.Context, id string, force bool) (HarvestRecord, Result, error) {
	var record HarvestRecord
	var res Result
	err := s.run(ctx, "harvest_table", func(ctx context.Context) (string, error) {
		now := s.nowFn()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			table, ok := tx.FindTable(id)
			if !ok {
				return ErrNotFound{Entity: EntityGrowingTable, ID: id}
			}
			if !table.HasActiveLot() {
				return domain.NoActiveLotError{TableID: id}
			}
			ratio, err := TableCalibreProgress(table, s.scale)
			if err != nil {
				return err
			}
			progress, err := TableTimeProgress(table, now)
			if err != nil {
				return err
			}
			ready := effectiveStage(table, ratio, progress) == StageReadyOrOverdue
			if !ready && !force {
				return domain.TableNotReadyError{TableID: id, Stage: table.Stage}
			}
			record, err = tx.CreateHarvest(HarvestRecord{
				TableID:       table.ID,
				TableName:     table.Name,
				Calibre:       table.CurrentCalibre,
				TargetCalibre: table.TargetCalibre,
				QuantityUnits: table.FilledUnits,
				Forced:        !ready,
				SeededAt:      *table.StartDate,
				HarvestedAt:   now,
			})
			if err != nil {
				return err
			}
			_, err = tx.UpdateTable(id, func(t *GrowingTable) error {
				t.Stage = StageEmpty
				t.FilledUnits = 0
				t.CurrentCalibre = ""
				t.TargetCalibre = ""
				t.StartDate = nil
				t.PlannedHarvestDate = nil
				t.MortalityRatePercent = 0
				return nil
			})
			return err
		})
		return id, err
	})
	s.logWarnings("harvest_table", res)
	return record, res, err
}

// CreatePool persists a new purification pool. Pools start without batches.
func (s *Service) CreatePool(ctx context.Context, pool PurificationPool) (PurificationPool, Result, error) {
	var created PurificationPool
	var res Result
	err := s.run(ctx, "create_pool", func(ctx context.Context) (string, error) {
		if pool.Name == "" {
			return "", fmt.Errorf("pool name is required")
		}
		if pool.CapacityKg <= 0 {
			return "", fmt.Errorf("pool capacity must be positive, got %.1f", pool.CapacityKg)
		}
		pool.Batches = nil
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var txErr error
			created, txErr = tx.CreatePool(pool)
			return txErr
		})
		return created.ID, err
	})
	s.logWarnings("create_pool", res)
	return created, res, err
}

// UpdatePool mutates pool metadata using the provided mutator.
func (s *Service) UpdatePool(ctx context.Context, id string, mutator func(*PurificationPool) error) (PurificationPool, Result, error) {
	var updated PurificationPool
	var res Result
	err := s.run(ctx, "update_pool", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.FindPool(id); !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdatePool(id, mutator)
			return txErr
		})
		return id, err
	})
	s.logWarnings("update_pool", res)
	return updated, res, err
}

// DeletePool removes a pool once every batch has exited.
func (s *Service) DeletePool(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_pool", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			pool, ok := tx.FindPool(id)
			if !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: id}
			}
			if len(pool.Batches) > 0 {
				return fmt.Errorf("pool %s still holds %d batches; exit them before delete", id, len(pool.Batches))
			}
			return tx.DeletePool(id)
		})
		return id, err
	})
	return res, err
}

// EnterBatchInput carries the parameters for admitting a batch into a pool.
type EnterBatchInput struct {
	ProductName               string  `json:"product_name"`
	QuantityKg                float64 `json:"quantity_kg"`
	RequiredPurificationHours float64 `json:"required_purification_hours"`
}

// EnterBatch admits a batch into a pool. The entry is atomic: a batch that
// would overfill the pool is rejected with a typed error and nothing changes.
func (s *Service) EnterBatch(ctx context.Context, poolID string, input EnterBatchInput) (PoolBatch, Result, error) {
	var entered PoolBatch
	var res Result
	err := s.run(ctx, "enter_batch", func(ctx context.Context) (string, error) {
		if input.ProductName == "" {
			return poolID, fmt.Errorf("batch product name is required")
		}
		if input.QuantityKg <= 0 {
			return poolID, fmt.Errorf("batch quantity must be positive, got %.1f", input.QuantityKg)
		}
		if input.RequiredPurificationHours <= 0 {
			return poolID, fmt.Errorf("required purification hours must be positive, got %.1f", input.RequiredPurificationHours)
		}
		now := s.nowFn()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			pool, ok := tx.FindPool(poolID)
			if !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: poolID}
			}
			stocked := pool.StockedKg()
			if stocked+input.QuantityKg > pool.CapacityKg {
				return domain.CapacityExceededError{
					PoolID:      poolID,
					CapacityKg:  pool.CapacityKg,
					StockedKg:   stocked,
					RequestedKg: input.QuantityKg,
				}
			}
			entered = PoolBatch{
				ID:                        newServiceID(),
				ProductName:               input.ProductName,
				QuantityKg:                input.QuantityKg,
				EntryTimestamp:            now,
				RequiredPurificationHours: input.RequiredPurificationHours,
			}
			_, err := tx.UpdatePool(poolID, func(p *PurificationPool) error {
				p.Batches = append(p.Batches, entered)
				return nil
			})
			return err
		})
		return poolID, err
	})
	s.logWarnings("enter_batch", res)
	return entered, res, err
}

// ExitBatch removes quantityKg of a batch from a pool. A partial exit leaves
// the remainder purifying under the original entry timestamp; exiting the
// full remaining quantity removes the batch.
func (s *Service) ExitBatch(ctx context.Context, poolID, batchID string, quantityKg float64) (PurificationPool, Result, error) {
	var updated PurificationPool
	var res Result
	err := s.run(ctx, "exit_batch", func(ctx context.Context) (string, error) {
		if quantityKg <= 0 {
			return poolID, fmt.Errorf("exit quantity must be positive, got %.1f", quantityKg)
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			pool, ok := tx.FindPool(poolID)
			if !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: poolID}
			}
			batch, ok := pool.FindBatch(batchID)
			if !ok {
				return domain.UnknownBatchError{PoolID: poolID, BatchID: batchID}
			}
			if quantityKg > batch.QuantityKg {
				return domain.ExitQuantityExceedsRemainingError{
					PoolID:      poolID,
					BatchID:     batchID,
					RemainingKg: batch.QuantityKg,
					RequestedKg: quantityKg,
				}
			}
			var txErr error
			updated, txErr = tx.UpdatePool(poolID, func(p *PurificationPool) error {
				for i := range p.Batches {
					if p.Batches[i].ID != batchID {
						continue
					}
					if quantityKg == p.Batches[i].QuantityKg {
						p.Batches = append(p.Batches[:i], p.Batches[i+1:]...)
					} else {
						p.Batches[i].QuantityKg -= quantityKg
					}
					return nil
				}
				return domain.UnknownBatchError{PoolID: poolID, BatchID: batchID}
			})
			return txErr
		})
		return poolID, err
	})
	s.logWarnings("exit_batch", res)
	return updated, res, err
}

// PoolConditionsInput carries one reading of a pool's water conditions.
type PoolConditionsInput struct {
	WaterQualityPercent float64 `json:"water_quality_percent"`
	OxygenPercent       float64 `json:"oxygen_percent"`
	TemperatureC        float64 `json:"temperature_c"`
	UVLampHours         float64 `json:"uv_lamp_hours"`
}

// RecordPoolConditions stores a fresh conditions reading on a pool.
func (s *Service) RecordPoolConditions(ctx context.Context, poolID string, input PoolConditionsInput) (PurificationPool, Result, error) {
	var updated PurificationPool
	var res Result
	err := s.run(ctx, "record_pool_conditions", func(ctx context.Context) (string, error) {
		if input.WaterQualityPercent < 0 || input.WaterQualityPercent > 100 {
			return poolID, fmt.Errorf("water quality %.2f%% out of range [0,100]", input.WaterQualityPercent)
		}
		if input.OxygenPercent < 0 || input.OxygenPercent > 100 {
			return poolID, fmt.Errorf("oxygen %.2f%% out of range [0,100]", input.OxygenPercent)
		}
		if input.UVLampHours < 0 {
			return poolID, fmt.Errorf("uv lamp hours %.1f cannot be negative", input.UVLampHours)
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.FindPool(poolID); !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: poolID}
			}
			var txErr error
			updated, txErr = tx.UpdatePool(poolID, func(p *PurificationPool) error {
				p.WaterQualityPercent = input.WaterQualityPercent
				p.OxygenPercent = input.OxygenPercent
				p.TemperatureC = input.TemperatureC
				p.UVLampHours = input.UVLampHours
				return nil
			})
			return txErr
		})
		return poolID, err
	})
	s.logWarnings("record_pool_conditions", res)
	return updated, res, err
}

// ReplaceUVLamp resets a pool's UV lamp wear counter after a lamp swap.
func (s *Service) ReplaceUVLamp(ctx context.Context, poolID string) (PurificationPool, Result, error) {
	var updated PurificationPool
	var res Result
	err := s.run(ctx, "replace_uv_lamp", func(ctx context.Context) (string, error) {
		now := s.nowFn()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.FindPool(poolID); !ok {
				return ErrNotFound{Entity: EntityPurificationPool, ID: poolID}
			}
			var txErr error
			updated, txErr = tx.UpdatePool(poolID, func(p *PurificationPool) error {
				changed := now
				p.UVLampHours = 0
				p.LastUVChangeDate = &changed
				return nil
			})
			return txErr
		})
		return poolID, err
	})
	s.logWarnings("replace_uv_lamp", res)
	return updated, res, err
}

// TableView computes the derived read model for one table.
func (s *Service) TableView(ctx context.Context, id string) (TableView, error) {
	var view TableView
	now := s.nowFn()
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		table, ok := v.FindTable(id)
		if !ok {
			return ErrNotFound{Entity: EntityGrowingTable, ID: id}
		}
		var err error
		view, err = ComputeTableView(table, s.scale, s.bands, now)
		return err
	})
	return view, err
}

// ListTableViews computes derived read models for every table.
func (s *Service) ListTableViews(ctx context.Context) ([]TableView, error) {
	var views []TableView
	now := s.nowFn()
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, table := range v.ListTables() {
			view, err := ComputeTableView(table, s.scale, s.bands, now)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	return views, err
}

// PoolView computes the derived read model for one pool.
func (s *Service) PoolView(ctx context.Context, id string) (PoolView, error) {
	var view PoolView
	now := s.nowFn()
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		pool, ok := v.FindPool(id)
		if !ok {
			return ErrNotFound{Entity: EntityPurificationPool, ID: id}
		}
		var err error
		view, err = ComputePoolView(pool, s.bands, now)
		return err
	})
	return view, err
}

// ListPoolViews computes derived read models for every pool.
func (s *Service) ListPoolViews(ctx context.Context) ([]PoolView, error) {
	var views []PoolView
	now := s.nowFn()
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, pool := range v.ListPools() {
			view, err := ComputePoolView(pool, s.bands, now)
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	return views, err
}

// ListHarvests returns the recorded harvest history, most recent first.
func (s *Service) ListHarvests(ctx context.Context) ([]HarvestRecord, error) {
	var records []HarvestRecord
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		records = v.ListHarvests()
		return nil
	})
	return records, err
}
