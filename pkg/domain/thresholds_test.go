package domain

import "testing"

func TestMortalityBandBoundaries(t *testing.T) {
	bands := DefaultThresholdBands()
	cases := []struct {
		value float64
		want  Band
	}{
		{0, BandNominal},
		{15, BandNominal},
		{15.01, BandWarning},
		{20, BandWarning},
		{20.01, BandCritical},
		{45, BandCritical},
	}
	for _, tc := range cases {
		got, _ := bands.Band(MetricMortalityPercent, tc.value)
		if got != tc.want {
			t.Fatalf("mortality %.2f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestWaterQualityBandBoundaries(t *testing.T) {
	bands := DefaultThresholdBands()
	cases := []struct {
		value float64
		want  Band
	}{
		{100, BandNominal},
		{95, BandNominal},
		{94.9, BandWarning},
		{90, BandWarning},
		{89.9, BandCritical},
	}
	for _, tc := range cases {
		got, _ := bands.Band(MetricWaterQualityPercent, tc.value)
		if got != tc.want {
			t.Fatalf("water quality %.1f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestTimeProgressBandBoundaries(t *testing.T) {
	bands := DefaultThresholdBands()
	cases := []struct {
		value float64
		want  Band
	}{
		{50, BandNominal},
		{100, BandNominal},
		{100.1, BandWarning},
		{110, BandWarning},
		{110.1, BandCritical},
	}
	for _, tc := range cases {
		got, _ := bands.Band(MetricTimeProgressPercent, tc.value)
		if got != tc.want {
			t.Fatalf("time progress %.1f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

// UV lamp hours is the one metric where the boundary itself is already in
// the worse band.
func TestUVLampBandBoundaries(t *testing.T) {
	bands := DefaultThresholdBands()
	cases := []struct {
		value float64
		want  Band
	}{
		{6999.9, BandNominal},
		{7000, BandWarning},
		{7999.9, BandWarning},
		{8000, BandCritical},
		{8200, BandCritical},
	}
	for _, tc := range cases {
		got, _ := bands.Band(MetricUVLampHours, tc.value)
		if got != tc.want {
			t.Fatalf("uv hours %.1f: expected %s, got %s", tc.value, tc.want, got)
		}
	}
}

func TestUnknownMetricBandsNominal(t *testing.T) {
	bands := DefaultThresholdBands()
	got, reason := bands.Band(MetricKind("salinity"), 999)
	if got != BandNominal {
		t.Fatalf("expected nominal for unknown metric, got %s", got)
	}
	if reason == "" {
		t.Fatalf("expected reason for unknown metric")
	}
}

func TestNewThresholdBandsValidation(t *testing.T) {
	if _, err := NewThresholdBands(map[MetricKind]BandSpec{
		MetricMortalityPercent: {Warn: 20, Critical: 15},
	}); err == nil {
		t.Fatalf("expected error for inverted cuts")
	}
	if _, err := NewThresholdBands(map[MetricKind]BandSpec{
		MetricWaterQualityPercent: {LowerIsWorse: true, Warn: 90, Critical: 95},
	}); err == nil {
		t.Fatalf("expected error for inverted lower-is-worse cuts")
	}
}

func TestBandRank(t *testing.T) {
	if BandCritical.Rank() <= BandWarning.Rank() || BandWarning.Rank() <= BandNominal.Rank() {
		t.Fatalf("band ranks out of order")
	}
}
