package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/enums"
)

// ServiceRecord is one append-only entry in the maintenance ledger; the cost
// engine derives kilometer spans from these rows.
type ServiceRecord struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code string    `gorm:"column:code;type:text;not null;uniqueIndex:ux_service_records_code"`

	TireID   string `gorm:"column:tire_id;type:text;not null;index:ix_service_records_tire_id"`
	Plate    string `gorm:"column:plate;type:text;not null;index:ix_service_records_plate"`
	Position string `gorm:"column:position;type:text"`
	Life     int    `gorm:"column:life;not null"`

	Type         enums.ServiceType      `gorm:"column:type;type:text;not null"`
	Availability enums.TireAvailability `gorm:"column:availability;type:text;not null"`
	Mileage      int64                  `gorm:"column:mileage;not null"`

	Rotated     bool    `gorm:"column:rotated;not null;default:false"`
	NewPosition *string `gorm:"column:new_position;type:text"`

	Depth1 float64 `gorm:"column:depth_1;not null;default:0"`
	Depth2 float64 `gorm:"column:depth_2;not null;default:0"`
	Depth3 float64 `gorm:"column:depth_3;not null;default:0"`

	Alignment      bool `gorm:"column:alignment;not null;default:false"`
	Balancing      bool `gorm:"column:balancing;not null;default:false"`
	Repair         bool `gorm:"column:repair;not null;default:false"`
	PunctureRepair bool `gorm:"column:puncture_repair;not null;default:false"`
	Regrooving     bool `gorm:"column:regrooving;not null;default:false"`
	Torque         bool `gorm:"column:torque;not null;default:false"`

	EndOfLifeReason *string `gorm:"column:end_of_life_reason;type:text"`

	RecordedBy string    `gorm:"column:recorded_by;type:text;not null"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// AverageDepth returns the mean of the three tread depth probes.
func (s *ServiceRecord) AverageDepth() float64 {
	return (s.Depth1 + s.Depth2 + s.Depth3) / 3
}
