package audit

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// CheckInputsMessage is shown to users when a result carries NaN or Infinity
const CheckInputsMessage = "Result is not a finite number, please check inputs"

// Finding is one non-finite float located inside a result value
type Finding struct {
	Path  string  `json:"path"`
	Value float64 `json:"-"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s=%v", f.Path, f.Value)
}

// CheckNonFinite recursively walks data and reports every NaN or Infinity float it holds.
// Structs, pointers, slices, arrays and maps are descended into; unexported fields are skipped.
func CheckNonFinite(data interface{}) []Finding {
	var findings []Finding
	walk(reflect.ValueOf(data), "", &findings)
	return findings
}

// HasNonFinite reports whether CheckNonFinite would return any findings
func HasNonFinite(data interface{}) bool {
	return len(CheckNonFinite(data)) > 0
}

// Describe joins findings into a single log-friendly line
func Describe(findings []Finding) string {
	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

func walk(val reflect.Value, path string, findings *[]Finding) {
	switch val.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := val.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			*findings = append(*findings, Finding{Path: strings.TrimPrefix(path, "."), Value: f})
		}
	case reflect.Ptr, reflect.Interface:
		if !val.IsNil() {
			walk(val.Elem(), path, findings)
		}
	case reflect.Struct:
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := path + "." + field.Name
			if field.Anonymous {
				name = path
			}
			walk(val.Field(i), name, findings)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < val.Len(); i++ {
			walk(val.Index(i), fmt.Sprintf("%s[%d]", path, i), findings)
		}
	case reflect.Map:
		iter := val.MapRange()
		for iter.Next() {
			walk(iter.Value(), fmt.Sprintf("%s.%v", path, iter.Key().Interface()), findings)
		}
	}
}

// ValidateInputs flags pricing inputs that are accepted but will give degenerate or
// implausible results. It never rejects anything.
func ValidateInputs(strike, spot, maturity, volatility float64) []string {
	var warnings []string

	if strike <= 0 {
		warnings = append(warnings, "Strike price must be positive")
	}
	if spot <= 0 {
		warnings = append(warnings, "Spot price must be positive")
	}
	if maturity <= 0 {
		warnings = append(warnings, "Time to maturity is not positive, results will be degenerate")
	}
	if volatility <= 0 {
		warnings = append(warnings, "Volatility is not positive, results will be degenerate")
	}
	// 1000% volatility is unrealistic
	if volatility > 10 {
		warnings = append(warnings, fmt.Sprintf("Implied volatility suspiciously high: %.2f%%", volatility*100))
	}
	return warnings
}
