package core

import "oystercult/pkg/domain"

type (
	EntityType         = domain.EntityType
	LotStage           = domain.LotStage
	BatchState         = domain.BatchState
	Band               = domain.Band
	MetricKind         = domain.MetricKind
	Severity           = domain.Severity
	Base               = domain.Base
	GrowingTable       = domain.GrowingTable
	PurificationPool   = domain.PurificationPool
	PoolBatch          = domain.PoolBatch
	HarvestRecord      = domain.HarvestRecord
	Alert              = domain.Alert
	AlertKind          = domain.AlertKind
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityGrowingTable     = domain.EntityGrowingTable
	EntityPurificationPool = domain.EntityPurificationPool
	EntityHarvestRecord    = domain.EntityHarvestRecord
)

const (
	StageEmpty          = domain.StageEmpty
	StageSeeded         = domain.StageSeeded
	StageGrowing        = domain.StageGrowing
	StageReadyOrOverdue = domain.StageReadyOrOverdue
)

const (
	BatchEntered      = domain.BatchEntered
	BatchPurifying    = domain.BatchPurifying
	BatchReadyForExit = domain.BatchReadyForExit
)

const (
	BandNominal  = domain.BandNominal
	BandWarning  = domain.BandWarning
	BandCritical = domain.BandCritical
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
