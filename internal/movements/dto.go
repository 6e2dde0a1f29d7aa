package movements

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
)

// MovementDTO is the transport shape of one movement ledger entry.
type MovementDTO struct {
	ID       uuid.UUID `json:"id"`
	Sequence int64     `json:"sequence"`

	TireID     string             `json:"tire_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Type       enums.MovementType `json:"type"`
	Life       int                `json:"life"`

	Plate    string `json:"plate,omitempty"`
	Position string `json:"position,omitempty"`
	Mileage  int64  `json:"mileage"`

	NewAvailability *enums.TireAvailability `json:"new_availability,omitempty"`

	RetreadBrand     *string          `json:"retread_brand,omitempty"`
	RetreadReference *string          `json:"retread_reference,omitempty"`
	RetreadPrice     *decimal.Decimal `json:"retread_price,omitempty"`

	RecordedBy string    `json:"recorded_by"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromModel maps a persisted movement into its transport shape.
func FromModel(m *models.Movement) *MovementDTO {
	if m == nil {
		return nil
	}
	return &MovementDTO{
		ID:               m.ID,
		Sequence:         m.Sequence,
		TireID:           m.TireID,
		OccurredAt:       m.OccurredAt,
		Type:             m.Type,
		Life:             m.Life,
		Plate:            m.Plate,
		Position:         m.Position,
		Mileage:          m.Mileage,
		NewAvailability:  m.NewAvailability,
		RetreadBrand:     m.RetreadBrand,
		RetreadReference: m.RetreadReference,
		RetreadPrice:     m.RetreadPrice,
		RecordedBy:       m.RecordedBy,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}

// FromModels maps a page of movements.
func FromModels(rows []models.Movement) []MovementDTO {
	out := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
