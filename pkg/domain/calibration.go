package domain

import "fmt"

// CalibrationStep is one ordered size category and the share of a growth
// cycle it represents. Steps are immutable configuration, not runtime state.
type CalibrationStep struct {
	Code            string  `json:"code"`
	ProgressPercent float64 `json:"progress_percent"`
}

// Scale is a fixed, ordered calibration scale (smallest to largest).
type Scale struct {
	steps []CalibrationStep
	index map[string]int
}

// NewScale validates and builds a calibration scale. Percentages must be
// strictly increasing along the order and codes must be unique.
func NewScale(steps []CalibrationStep) (Scale, error) {
	if len(steps) == 0 {
		return Scale{}, fmt.Errorf("calibration scale requires at least one step")
	}
	index := make(map[string]int, len(steps))
	for i, step := range steps {
		if step.Code == "" {
			return Scale{}, fmt.Errorf("calibration step %d has empty code", i)
		}
		if _, dup := index[step.Code]; dup {
			return Scale{}, fmt.Errorf("duplicate calibre %q in scale", step.Code)
		}
		if i > 0 && step.ProgressPercent <= steps[i-1].ProgressPercent {
			return Scale{}, fmt.Errorf("calibre %q progress %.1f not above predecessor %.1f",
				step.Code, step.ProgressPercent, steps[i-1].ProgressPercent)
		}
		index[step.Code] = i
	}
	cloned := make([]CalibrationStep, len(steps))
	copy(cloned, steps)
	return Scale{steps: cloned, index: index}, nil
}

// DefaultOysterScale returns the standard oyster grading scale, spat sizes
// first (T-grades), then adult calibres up to N°0.
func DefaultOysterScale() Scale {
	scale, err := NewScale([]CalibrationStep{
		{Code: "T6", ProgressPercent: 5},
		{Code: "T8", ProgressPercent: 12},
		{Code: "T10", ProgressPercent: 20},
		{Code: "T15", ProgressPercent: 30},
		{Code: "N°5", ProgressPercent: 45},
		{Code: "N°4", ProgressPercent: 58},
		{Code: "N°3", ProgressPercent: 70},
		{Code: "N°2", ProgressPercent: 82},
		{Code: "N°1", ProgressPercent: 92},
		{Code: "N°0", ProgressPercent: 100},
	})
	if err != nil {
		panic(err)
	}
	return scale
}

// Steps returns a copy of the ordered steps.
func (s Scale) Steps() []CalibrationStep {
	out := make([]CalibrationStep, len(s.steps))
	copy(out, s.steps)
	return out
}

// Len returns the number of configured steps.
func (s Scale) Len() int { return len(s.steps) }

// IndexOf returns the position of the calibre within the scale order.
// Unknown codes fail with UnknownCalibreError and must not be coerced to a
// default by callers.
func (s Scale) IndexOf(code string) (int, error) {
	i, ok := s.index[code]
	if !ok {
		return 0, UnknownCalibreError{Code: code}
	}
	return i, nil
}

// ProgressOf returns the growth-cycle percentage for the calibre.
func (s Scale) ProgressOf(code string) (float64, error) {
	i, err := s.IndexOf(code)
	if err != nil {
		return 0, err
	}
	return s.steps[i].ProgressPercent, nil
}

// StepsBetween returns the steps from a to b inclusive, in scale order.
// When a sits above b the list is reversed, representing a regression path.
func (s Scale) StepsBetween(a, b string) ([]CalibrationStep, error) {
	ia, err := s.IndexOf(a)
	if err != nil {
		return nil, err
	}
	ib, err := s.IndexOf(b)
	if err != nil {
		return nil, err
	}
	if ia <= ib {
		out := make([]CalibrationStep, 0, ib-ia+1)
		for i := ia; i <= ib; i++ {
			out = append(out, s.steps[i])
		}
		return out, nil
	}
	out := make([]CalibrationStep, 0, ia-ib+1)
	for i := ia; i >= ib; i-- {
		out = append(out, s.steps[i])
	}
	return out, nil
}
