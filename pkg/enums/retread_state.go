package enums

import "fmt"

// RetreadState tracks the retread sub-state of a tire. The zero value means the
// tire has no retread in flight.
type RetreadState string

const (
	RetreadStateNone             RetreadState = ""
	RetreadStatePlantConditioned RetreadState = "plant_conditioned"
	RetreadStateApproved         RetreadState = "approved"
)

var validRetreadStates = []RetreadState{
	RetreadStateNone,
	RetreadStatePlantConditioned,
	RetreadStateApproved,
}

// String implements fmt.Stringer.
func (r RetreadState) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RetreadState.
func (r RetreadState) IsValid() bool {
	for _, candidate := range validRetreadStates {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRetreadState converts raw input into a RetreadState.
func ParseRetreadState(value string) (RetreadState, error) {
	for _, candidate := range validRetreadStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retread state %q", value)
}
