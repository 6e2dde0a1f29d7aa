package vehicles

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
)

// VehicleDTO is the transport shape of a fleet unit.
type VehicleDTO struct {
	ID             uuid.UUID             `json:"id"`
	Code           string                `json:"code"`
	ClientNIT      string                `json:"client_nit"`
	Brand          string                `json:"brand"`
	Line           string                `json:"line,omitempty"`
	Typology       enums.VehicleTypology `json:"typology"`
	Plate          string                `json:"plate"`
	Front          string                `json:"front,omitempty"`
	Status         enums.VehicleStatus   `json:"status"`
	InitialMileage int64                 `json:"initial_mileage"`
	MileageMethod  enums.MileageMethod   `json:"mileage_method"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FromModel maps a persisted vehicle into its transport shape.
func FromModel(v *models.Vehicle) *VehicleDTO {
	if v == nil {
		return nil
	}
	return &VehicleDTO{
		ID:             v.ID,
		Code:           v.Code,
		ClientNIT:      v.ClientNIT,
		Brand:          v.Brand,
		Line:           v.Line,
		Typology:       v.Typology,
		Plate:          v.Plate,
		Front:          v.Front,
		Status:         v.Status,
		InitialMileage: v.InitialMileage,
		MileageMethod:  v.MileageMethod,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

// FromModels maps a page of vehicles.
func FromModels(rows []models.Vehicle) []VehicleDTO {
	out := make([]VehicleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
