package domain

import "fmt"

// Band is the discrete severity a continuous reading maps to.
type Band string

// Severity bands ordered from safest to worst.
const (
	BandNominal  Band = "nominal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// Rank orders bands for alert prioritisation (higher is worse).
func (b Band) Rank() int {
	switch b {
	case BandCritical:
		return 2
	case BandWarning:
		return 1
	default:
		return 0
	}
}

// MetricKind identifies a banded reading.
type MetricKind string

// Banded metrics consumed by the derived-view computations.
const (
	MetricMortalityPercent    MetricKind = "mortality_percent"
	MetricWaterQualityPercent MetricKind = "water_quality_percent"
	MetricTimeProgressPercent MetricKind = "time_progress_percent"
	MetricUVLampHours         MetricKind = "uv_lamp_hours"
	MetricOxygenPercent       MetricKind = "oxygen_percent"
	MetricTemperatureC        MetricKind = "temperature_c"
)

// BandSpec configures the cut points for one metric. Warn is the boundary
// between nominal and warning, Critical the boundary between warning and
// critical. A value sitting exactly on a boundary belongs to the safer band
// unless BoundaryIsWorse is set.
type BandSpec struct {
	Label           string  `json:"label"`
	Unit            string  `json:"unit"`
	LowerIsWorse    bool    `json:"lower_is_worse"`
	Warn            float64 `json:"warn"`
	Critical        float64 `json:"critical"`
	BoundaryIsWorse bool    `json:"boundary_is_worse"`
}

// ThresholdBands maps raw readings to severity bands. The table is plain
// configuration so a deployment can tune cut points without a code change.
type ThresholdBands struct {
	specs map[MetricKind]BandSpec
}

// NewThresholdBands validates and builds a banding table.
func NewThresholdBands(specs map[MetricKind]BandSpec) (ThresholdBands, error) {
	cloned := make(map[MetricKind]BandSpec, len(specs))
	for kind, spec := range specs {
		if spec.LowerIsWorse {
			if spec.Critical >= spec.Warn {
				return ThresholdBands{}, fmt.Errorf("%s: critical cut %.2f must sit below warn cut %.2f", kind, spec.Critical, spec.Warn)
			}
		} else if spec.Critical <= spec.Warn {
			return ThresholdBands{}, fmt.Errorf("%s: critical cut %.2f must sit above warn cut %.2f", kind, spec.Critical, spec.Warn)
		}
		cloned[kind] = spec
	}
	return ThresholdBands{specs: cloned}, nil
}

// DefaultThresholdBands returns the standard banding table.
func DefaultThresholdBands() ThresholdBands {
	bands, err := NewThresholdBands(map[MetricKind]BandSpec{
		MetricMortalityPercent: {
			Label: "mortality rate", Unit: "%",
			Warn: 15, Critical: 20,
		},
		MetricWaterQualityPercent: {
			Label: "water quality", Unit: "%",
			LowerIsWorse: true, Warn: 95, Critical: 90,
		},
		MetricTimeProgressPercent: {
			Label: "time progress", Unit: "%",
			Warn: 100, Critical: 110,
		},
		MetricUVLampHours: {
			Label: "UV lamp runtime", Unit: "h",
			Warn: 7000, Critical: 8000, BoundaryIsWorse: true,
		},
		MetricOxygenPercent: {
			Label: "dissolved oxygen", Unit: "%",
			LowerIsWorse: true, Warn: 90, Critical: 80,
		},
		MetricTemperatureC: {
			Label: "water temperature", Unit: "°C",
			Warn: 14, Critical: 18,
		},
	})
	if err != nil {
		panic(err)
	}
	return bands
}

// Spec returns the configured cut points for a metric.
func (t ThresholdBands) Spec(kind MetricKind) (BandSpec, bool) {
	spec, ok := t.specs[kind]
	return spec, ok
}

// Band maps a raw reading to its severity band and a human-readable reason.
// Metrics with no configured spec band as nominal.
func (t ThresholdBands) Band(kind MetricKind, value float64) (Band, string) {
	spec, ok := t.specs[kind]
	if !ok {
		return BandNominal, fmt.Sprintf("no thresholds configured for %s", kind)
	}
	band := spec.band(value)
	return band, spec.reason(band, value)
}

func (s BandSpec) band(value float64) Band {
	if s.LowerIsWorse {
		if s.beyond(s.Critical, value) {
			return BandCritical
		}
		if s.beyond(s.Warn, value) {
			return BandWarning
		}
		return BandNominal
	}
	if s.beyond(s.Critical, value) {
		return BandCritical
	}
	if s.beyond(s.Warn, value) {
		return BandWarning
	}
	return BandNominal
}

// beyond reports whether value crossed the cut point into the worse band.
func (s BandSpec) beyond(cut, value float64) bool {
	if s.LowerIsWorse {
		if s.BoundaryIsWorse {
			return value <= cut
		}
		return value < cut
	}
	if s.BoundaryIsWorse {
		return value >= cut
	}
	return value > cut
}

func (s BandSpec) reason(band Band, value float64) string {
	switch band {
	case BandCritical:
		return fmt.Sprintf("%s %.1f%s beyond critical cut %.1f%s", s.Label, value, s.Unit, s.Critical, s.Unit)
	case BandWarning:
		return fmt.Sprintf("%s %.1f%s beyond warning cut %.1f%s", s.Label, value, s.Unit, s.Warn, s.Unit)
	default:
		return fmt.Sprintf("%s %.1f%s within nominal range", s.Label, value, s.Unit)
	}
}
