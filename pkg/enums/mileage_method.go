package enums

import "fmt"

// MileageMethod states how a vehicle's kilometers are captured.
type MileageMethod string

const (
	MileageMethodOdometer MileageMethod = "odometer"
	MileageMethodAverage  MileageMethod = "average"
	MileageMethodTable    MileageMethod = "table"
)

var validMileageMethods = []MileageMethod{
	MileageMethodOdometer,
	MileageMethodAverage,
	MileageMethodTable,
}

// String implements fmt.Stringer.
func (m MileageMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MileageMethod.
func (m MileageMethod) IsValid() bool {
	for _, candidate := range validMileageMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMileageMethod converts raw input into a MileageMethod.
func ParseMileageMethod(value string) (MileageMethod, error) {
	for _, candidate := range validMileageMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mileage method %q", value)
}
