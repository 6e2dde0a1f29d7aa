package maintenance

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
)

// ServiceRecordDTO is the transport shape of one maintenance ledger entry.
type ServiceRecordDTO struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`

	TireID   string `json:"tire_id"`
	Plate    string `json:"plate"`
	Position string `json:"position,omitempty"`
	Life     int    `json:"life"`

	Type         enums.ServiceType      `json:"type"`
	Availability enums.TireAvailability `json:"availability"`
	Mileage      int64                  `json:"mileage"`

	Rotated     bool    `json:"rotated"`
	NewPosition *string `json:"new_position,omitempty"`

	Depth1       float64 `json:"depth_1"`
	Depth2       float64 `json:"depth_2"`
	Depth3       float64 `json:"depth_3"`
	AverageDepth float64 `json:"average_depth"`

	Alignment      bool `json:"alignment"`
	Balancing      bool `json:"balancing"`
	Repair         bool `json:"repair"`
	PunctureRepair bool `json:"puncture_repair"`
	Regrooving     bool `json:"regrooving"`
	Torque         bool `json:"torque"`

	EndOfLifeReason *string `json:"end_of_life_reason,omitempty"`

	RecordedBy string    `json:"recorded_by"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromModel maps a persisted service record into its transport shape.
func FromModel(s *models.ServiceRecord) *ServiceRecordDTO {
	if s == nil {
		return nil
	}
	return &ServiceRecordDTO{
		ID:              s.ID,
		Code:            s.Code,
		TireID:          s.TireID,
		Plate:           s.Plate,
		Position:        s.Position,
		Life:            s.Life,
		Type:            s.Type,
		Availability:    s.Availability,
		Mileage:         s.Mileage,
		Rotated:         s.Rotated,
		NewPosition:     s.NewPosition,
		Depth1:          s.Depth1,
		Depth2:          s.Depth2,
		Depth3:          s.Depth3,
		AverageDepth:    s.AverageDepth(),
		Alignment:       s.Alignment,
		Balancing:       s.Balancing,
		Repair:          s.Repair,
		PunctureRepair:  s.PunctureRepair,
		Regrooving:      s.Regrooving,
		Torque:          s.Torque,
		EndOfLifeReason: s.EndOfLifeReason,
		RecordedBy:      s.RecordedBy,
		OccurredAt:      s.OccurredAt,
		CreatedAt:       s.CreatedAt,
	}
}

// FromModels maps a page of service records.
func FromModels(rows []models.ServiceRecord) []ServiceRecordDTO {
	out := make([]ServiceRecordDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
