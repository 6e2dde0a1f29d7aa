package enums

import "fmt"

// TireAvailability tracks where a tire sits in its lifecycle.
type TireAvailability string

const (
	TireAvailabilityNew       TireAvailability = "new"
	TireAvailabilityMounted   TireAvailability = "mounted"
	TireAvailabilitySpare     TireAvailability = "spare"
	TireAvailabilityRetread   TireAvailability = "retread"
	TireAvailabilityEndOfLife TireAvailability = "end_of_life"
)

var validTireAvailabilities = []TireAvailability{
	TireAvailabilityNew,
	TireAvailabilityMounted,
	TireAvailabilitySpare,
	TireAvailabilityRetread,
	TireAvailabilityEndOfLife,
}

// String implements fmt.Stringer.
func (t TireAvailability) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TireAvailability.
func (t TireAvailability) IsValid() bool {
	for _, candidate := range validTireAvailabilities {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTireAvailability converts raw input into a TireAvailability.
func ParseTireAvailability(value string) (TireAvailability, error) {
	for _, candidate := range validTireAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tire availability %q", value)
}
