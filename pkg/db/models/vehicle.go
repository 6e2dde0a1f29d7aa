package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/enums"
)

// Vehicle is a unit of the fleet identified by its plate.
type Vehicle struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string                `gorm:"column:code;type:text;not null;uniqueIndex:ux_vehicles_client_code"`
	ClientNIT      string                `gorm:"column:client_nit;type:text;not null;uniqueIndex:ux_vehicles_client_code;index:ix_vehicles_client_nit"`
	Brand          string                `gorm:"column:brand;type:text;not null"`
	Line           string                `gorm:"column:line;type:text"`
	Typology       enums.VehicleTypology `gorm:"column:typology;type:text;not null"`
	Plate          string                `gorm:"column:plate;type:text;not null;uniqueIndex:ux_vehicles_plate"`
	Front          string                `gorm:"column:front;type:text"`
	Status         enums.VehicleStatus   `gorm:"column:status;type:text;not null;default:'unassigned'"`
	InitialMileage int64                 `gorm:"column:initial_mileage;not null;default:0"`
	MileageMethod  enums.MileageMethod   `gorm:"column:mileage_method;type:text;not null;default:'odometer'"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
