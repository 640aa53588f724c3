package domain

import (
	"errors"
	"testing"
)

func TestNewScaleValidation(t *testing.T) {
	if _, err := NewScale(nil); err == nil {
		t.Fatalf("expected error for empty scale")
	}
	if _, err := NewScale([]CalibrationStep{{Code: "", ProgressPercent: 10}}); err == nil {
		t.Fatalf("expected error for empty code")
	}
	if _, err := NewScale([]CalibrationStep{
		{Code: "A", ProgressPercent: 10},
		{Code: "A", ProgressPercent: 20},
	}); err == nil {
		t.Fatalf("expected error for duplicate code")
	}
	if _, err := NewScale([]CalibrationStep{
		{Code: "A", ProgressPercent: 20},
		{Code: "B", ProgressPercent: 20},
	}); err == nil {
		t.Fatalf("expected error for non-increasing progress")
	}
}

func TestDefaultOysterScaleOrder(t *testing.T) {
	scale := DefaultOysterScale()
	if scale.Len() != 10 {
		t.Fatalf("expected 10 steps, got %d", scale.Len())
	}
	first, err := scale.IndexOf("T6")
	if err != nil || first != 0 {
		t.Fatalf("expected T6 at index 0, got %d err=%v", first, err)
	}
	last, err := scale.IndexOf("N°0")
	if err != nil || last != 9 {
		t.Fatalf("expected N°0 at index 9, got %d err=%v", last, err)
	}
	progress, err := scale.ProgressOf("N°3")
	if err != nil || progress != 70 {
		t.Fatalf("expected N°3 progress 70, got %.1f err=%v", progress, err)
	}
}

func TestIndexOfUnknownCalibre(t *testing.T) {
	scale := DefaultOysterScale()
	_, err := scale.IndexOf("N°7")
	var unknown UnknownCalibreError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCalibreError, got %v", err)
	}
	if unknown.Code != "N°7" {
		t.Fatalf("expected code N°7 in error, got %q", unknown.Code)
	}
}

func TestStepsBetween(t *testing.T) {
	scale := DefaultOysterScale()

	forward, err := scale.StepsBetween("N°5", "N°3")
	if err != nil {
		t.Fatalf("steps between: %v", err)
	}
	if len(forward) != 3 || forward[0].Code != "N°5" || forward[2].Code != "N°3" {
		t.Fatalf("unexpected forward path: %+v", forward)
	}

	backward, err := scale.StepsBetween("N°3", "N°5")
	if err != nil {
		t.Fatalf("steps between reversed: %v", err)
	}
	if len(backward) != 3 || backward[0].Code != "N°3" || backward[2].Code != "N°5" {
		t.Fatalf("unexpected regression path: %+v", backward)
	}

	single, err := scale.StepsBetween("T8", "T8")
	if err != nil || len(single) != 1 {
		t.Fatalf("expected single-step path, got %+v err=%v", single, err)
	}
}
