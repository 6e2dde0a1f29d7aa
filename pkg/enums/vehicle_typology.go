package enums

import "fmt"

// VehicleTypology classifies the vehicle body type; it drives which axle
// positions a fleet expects.
type VehicleTypology string

const (
	VehicleTypologyTruck     VehicleTypology = "truck"
	VehicleTypologyTractor   VehicleTypology = "tractor"
	VehicleTypologyDumpTruck VehicleTypology = "dump_truck"
	VehicleTypologyTurbo     VehicleTypology = "turbo"
	VehicleTypologySingle    VehicleTypology = "single"
	VehicleTypologyOther     VehicleTypology = "other"
)

var validVehicleTypologies = []VehicleTypology{
	VehicleTypologyTruck,
	VehicleTypologyTractor,
	VehicleTypologyDumpTruck,
	VehicleTypologyTurbo,
	VehicleTypologySingle,
	VehicleTypologyOther,
}

// String implements fmt.Stringer.
func (v VehicleTypology) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleTypology.
func (v VehicleTypology) IsValid() bool {
	for _, candidate := range validVehicleTypologies {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleTypology converts raw input into a VehicleTypology.
func ParseVehicleTypology(value string) (VehicleTypology, error) {
	for _, candidate := range validVehicleTypologies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle typology %q", value)
}
