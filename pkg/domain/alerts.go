package domain

// AlertKind identifies the condition a derived alert reports.
type AlertKind string

// Alert kinds produced by the derived-view computations.
const (
	AlertCalibreOverdue AlertKind = "calibre_overdue"
	AlertTimeOverdue    AlertKind = "time_overdue"
	AlertMortalityHigh  AlertKind = "mortality_high"
	// AlertCapacityExceeded should never be observed when the capacity
	// invariant is enforced at mutation time; it is a defensive read-side check.
	AlertCapacityExceeded AlertKind = "capacity_exceeded"
	AlertWaterQualityLow  AlertKind = "water_quality_low"
	AlertOxygenLow        AlertKind = "oxygen_low"
	AlertTemperatureHigh  AlertKind = "temperature_high"
	AlertMaintenanceDue   AlertKind = "maintenance_due"
)

// Alert is a value object produced fresh on every computation pass.
// It is never persisted.
type Alert struct {
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id"`
	Kind     AlertKind  `json:"kind"`
	Band     Band       `json:"band"`
	Message  string     `json:"message"`
}
