package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// VitalKey names a physiological measurement in the fixed vocabulary
type VitalKey string

// Vital keys, in the order they are reported and assembled
const (
	Glucose       VitalKey = "glucose"
	Cholesterol   VitalKey = "cholesterol"
	LDL           VitalKey = "ldl"
	HDL           VitalKey = "hdl"
	Triglycerides VitalKey = "triglycerides"
	CRP           VitalKey = "crp"
	Systolic      VitalKey = "systolic"
	Diastolic     VitalKey = "diastolic"
	Pulse         VitalKey = "pulse"
	BMI           VitalKey = "bmi"
	Waist         VitalKey = "waist"
	Temperature   VitalKey = "temperature"
	Workout       VitalKey = "workout"
	Height        VitalKey = "height"
	Weight        VitalKey = "weight"
	Age           VitalKey = "age"
)

// GenderKey is the JSON/placeholder name of the categorical gender field
const GenderKey = "gender"

// Gender is the optional categorical attribute of a reading
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// VitalKeys returns the full vital vocabulary in canonical order
func VitalKeys() []VitalKey {
	return []VitalKey{
		Glucose, Cholesterol, LDL, HDL, Triglycerides, CRP, Systolic, Diastolic,
		Pulse, BMI, Waist, Temperature, Workout, Height, Weight, Age,
	}
}

// IsVitalKey reports whether name belongs to the vital vocabulary
func IsVitalKey(name string) bool {
	for _, k := range VitalKeys() {
		if string(k) == name {
			return true
		}
	}
	return false
}

// VitalReading holds the values a user supplied or that were extracted from a
// document. A key missing from Values means "not provided", never zero.
type VitalReading struct {
	Values map[VitalKey]float64
	Gender Gender
}

// NewVitalReading creates an empty reading
func NewVitalReading() VitalReading {
	return VitalReading{Values: make(map[VitalKey]float64)}
}

// Get returns the value for key and whether it was provided
func (v VitalReading) Get(key VitalKey) (float64, bool) {
	if v.Values == nil {
		return 0, false
	}
	val, ok := v.Values[key]
	return val, ok
}

// Has reports whether key was provided
func (v VitalReading) Has(key VitalKey) bool {
	_, ok := v.Get(key)
	return ok
}

// Set stores a value, allocating the map on first use
func (v *VitalReading) Set(key VitalKey, value float64) {
	if v.Values == nil {
		v.Values = make(map[VitalKey]float64)
	}
	v.Values[key] = value
}

// IsMale reports whether the reading's gender is male. Unknown gender is
// scored with the non-male coefficients.
func (v VitalReading) IsMale() bool {
	return v.Gender == GenderMale
}

// IsEmpty reports whether nothing was provided at all
func (v VitalReading) IsEmpty() bool {
	return len(v.Values) == 0 && v.Gender == ""
}

// Clone returns a deep copy
func (v VitalReading) Clone() VitalReading {
	out := NewVitalReading()
	for k, val := range v.Values {
		out.Values[k] = val
	}
	out.Gender = v.Gender
	return out
}

// Merge fills keys missing from v with values from other. Values already in v win.
func (v VitalReading) Merge(other VitalReading) VitalReading {
	out := v.Clone()
	for k, val := range other.Values {
		if !out.Has(k) {
			out.Values[k] = val
		}
	}
	if out.Gender == "" {
		out.Gender = other.Gender
	}
	return out
}

// Lookup resolves a placeholder name against the reading. Numbers are rendered
// in their shortest form, gender as its text.
func (v VitalReading) Lookup(name string) (string, bool) {
	if name == GenderKey {
		if v.Gender == "" {
			return "", false
		}
		return string(v.Gender), true
	}
	val, ok := v.Get(VitalKey(name))
	if !ok {
		return "", false
	}
	return FormatNumber(val), true
}

// WithDerivedBMI returns a copy with bmi computed from height (cm) and weight (kg)
// when bmi is absent and both inputs are present.
func (v VitalReading) WithDerivedBMI() VitalReading {
	out := v.Clone()
	if out.Has(BMI) {
		return out
	}
	height, hasHeight := out.Get(Height)
	weight, hasWeight := out.Get(Weight)
	if !hasHeight || !hasWeight || height <= 0 {
		return out
	}
	out.Values[BMI] = ComputeBMI(height, weight)
	return out
}

// ComputeBMI computes weight / (height/100)^2 rounded to two decimals
func ComputeBMI(heightCm, weightKg float64) float64 {
	h := heightCm / 100
	return RoundTo(weightKg/(h*h), 2)
}

// RoundTo rounds x to the given number of decimals, halves up
func RoundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(x*p+0.5) / p
}

// RoundHalfUp rounds to the nearest integer with halves going up
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// FormatNumber renders a float the way a form would echo it back: no trailing zeros
func FormatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// MarshalJSON renders the reading as a flat object
func (v VitalReading) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(v.Values)+1)
	for k, val := range v.Values {
		out[string(k)] = val
	}
	if v.Gender != "" {
		out[GenderKey] = string(v.Gender)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a flat object of numbers (or numeric strings) plus an
// optional gender. Unknown keys and empty values are ignored.
func (v *VitalReading) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	reading := NewVitalReading()
	for name, value := range raw {
		if name == GenderKey {
			g, err := parseGender(value)
			if err != nil {
				return err
			}
			reading.Gender = g
			continue
		}
		if !IsVitalKey(name) || value == nil {
			continue
		}
		switch typed := value.(type) {
		case float64:
			reading.Values[VitalKey(name)] = typed
		case string:
			if strings.TrimSpace(typed) == "" {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
			if err != nil {
				return NewValidationError(name, "must be a number", typed)
			}
			reading.Values[VitalKey(name)] = f
		default:
			return NewValidationError(name, "must be a number", typed)
		}
	}
	*v = reading
	return nil
}

func parseGender(value interface{}) (Gender, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", NewValidationError(GenderKey, "must be a string", value)
	}
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", NewValidationError(GenderKey, "must be male or female", s)
	}
}

// String renders the reading deterministically, mostly for logs
func (v VitalReading) String() string {
	keys := make([]string, 0, len(v.Values))
	for k := range v.Values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, FormatNumber(v.Values[VitalKey(k)])))
	}
	if v.Gender != "" {
		parts = append(parts, fmt.Sprintf("gender=%s", v.Gender))
	}
	return strings.Join(parts, " ")
}
