package enums

import "fmt"

// MovementType classifies an entry in the tire movement ledger.
type MovementType string

const (
	MovementTypeMount           MovementType = "mount"
	MovementTypeDismount        MovementType = "dismount"
	MovementTypeRetreadApproval MovementType = "retread_approval"
	MovementTypeRotation        MovementType = "rotation"
	MovementTypeOther           MovementType = "other"
)

var validMovementTypes = []MovementType{
	MovementTypeMount,
	MovementTypeDismount,
	MovementTypeRetreadApproval,
	MovementTypeRotation,
	MovementTypeOther,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
