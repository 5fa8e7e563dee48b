package domain

import (
	"encoding/json"
	"testing"
)

func TestComputeBMI(t *testing.T) {
	tests := []struct {
		name     string
		height   float64
		weight   float64
		expected float64
	}{
		{"Overweight adult", 180, 97, 29.94},
		{"Healthy adult", 170, 65, 22.49},
		{"Exact value", 200, 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBMI(tt.height, tt.weight)
			if got != tt.expected {
				t.Errorf("ComputeBMI(%v, %v) = %v, want %v", tt.height, tt.weight, got, tt.expected)
			}
		})
	}
}

func TestWithDerivedBMI(t *testing.T) {
	t.Run("derives when absent", func(t *testing.T) {
		v := NewVitalReading()
		v.Set(Height, 180)
		v.Set(Weight, 97)

		derived := v.WithDerivedBMI()
		bmi, ok := derived.Get(BMI)
		if !ok || bmi != 29.94 {
			t.Fatalf("expected bmi 29.94, got %v (present=%v)", bmi, ok)
		}
		if v.Has(BMI) {
			t.Error("original reading must not be mutated")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		v := NewVitalReading()
		v.Set(Height, 163)
		v.Set(Weight, 71.5)

		once := v.WithDerivedBMI()
		twice := once.WithDerivedBMI()
		a, _ := once.Get(BMI)
		b, _ := twice.Get(BMI)
		if a != b {
			t.Errorf("derivation not stable: %v vs %v", a, b)
		}
		if ComputeBMI(163, 71.5) != ComputeBMI(163, 71.5) {
			t.Error("ComputeBMI not deterministic")
		}
	})

	t.Run("keeps supplied bmi", func(t *testing.T) {
		v := NewVitalReading()
		v.Set(BMI, 31)
		v.Set(Height, 180)
		v.Set(Weight, 60)

		bmi, _ := v.WithDerivedBMI().Get(BMI)
		if bmi != 31 {
			t.Errorf("supplied bmi overwritten: %v", bmi)
		}
	})

	t.Run("needs both inputs", func(t *testing.T) {
		v := NewVitalReading()
		v.Set(Height, 180)
		if v.WithDerivedBMI().Has(BMI) {
			t.Error("bmi derived without weight")
		}
	})
}

func TestVitalReadingJSON(t *testing.T) {
	var v VitalReading
	err := json.Unmarshal([]byte(`{"glucose": 110, "systolic": "140", "gender": "Male", "notes": "x", "pulse": ""}`), &v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g, _ := v.Get(Glucose); g != 110 {
		t.Errorf("expected glucose 110, got %v", g)
	}
	if s, _ := v.Get(Systolic); s != 140 {
		t.Errorf("expected numeric string to parse, got %v", s)
	}
	if v.Has(Pulse) {
		t.Error("empty values should be treated as absent")
	}
	if v.Gender != GenderMale {
		t.Errorf("expected male, got %q", v.Gender)
	}

	var bad VitalReading
	if err := json.Unmarshal([]byte(`{"glucose": "high"}`), &bad); err == nil {
		t.Error("expected error for non-numeric glucose")
	}
	if err := json.Unmarshal([]byte(`{"gender": "unknown"}`), &bad); err == nil {
		t.Error("expected error for unknown gender")
	}
}

func TestVitalReadingLookup(t *testing.T) {
	v := NewVitalReading()
	v.Set(Glucose, 110)
	v.Set(BMI, 29.94)
	v.Gender = GenderFemale

	tests := []struct {
		name     string
		key      string
		expected string
		found    bool
	}{
		{"integer value", "glucose", "110", true},
		{"decimal value", "bmi", "29.94", true},
		{"gender", "gender", "female", true},
		{"missing", "ldl", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Lookup(tt.key)
			if ok != tt.found || got != tt.expected {
				t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.expected, tt.found)
			}
		})
	}
}

func TestMergePrefersExisting(t *testing.T) {
	form := NewVitalReading()
	form.Set(Glucose, 95)

	extracted := NewVitalReading()
	extracted.Set(Glucose, 180)
	extracted.Set(LDL, 130)
	extracted.Gender = GenderMale

	merged := form.Merge(extracted)
	if g, _ := merged.Get(Glucose); g != 95 {
		t.Errorf("explicit value should win, got %v", g)
	}
	if l, _ := merged.Get(LDL); l != 130 {
		t.Errorf("missing value should be filled, got %v", l)
	}
	if merged.Gender != GenderMale {
		t.Errorf("gender should be filled, got %q", merged.Gender)
	}
}
