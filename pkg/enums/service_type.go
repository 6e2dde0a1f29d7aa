package enums

import "fmt"

// ServiceType classifies a service record in the maintenance ledger.
type ServiceType string

const (
	ServiceTypeMount      ServiceType = "mount"
	ServiceTypeDismount   ServiceType = "dismount"
	ServiceTypeInspection ServiceType = "inspection"
	ServiceTypeRotation   ServiceType = "rotation"
	ServiceTypeOther      ServiceType = "other"
)

var validServiceTypes = []ServiceType{
	ServiceTypeMount,
	ServiceTypeDismount,
	ServiceTypeInspection,
	ServiceTypeRotation,
	ServiceTypeOther,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}
