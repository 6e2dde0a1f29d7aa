package tires

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
)

// TireDTO is the transport shape of a casing, carrying its lifecycle state,
// per-life prices and the derived cost figures.
type TireDTO struct {
	ID        uuid.UUID `json:"id"`
	TireID    string    `json:"tire_id"`
	ClientNIT string    `json:"client_nit"`
	Brand     string    `json:"brand"`
	Reference string    `json:"reference"`
	Dimension string    `json:"dimension"`

	CurrentLife  int                    `json:"current_life"`
	Availability enums.TireAvailability `json:"availability"`
	RetreadState enums.RetreadState     `json:"retread_state,omitempty"`

	CurrentPlate    *string `json:"current_plate,omitempty"`
	CurrentPosition *string `json:"current_position,omitempty"`
	KmAtLastMount   int64   `json:"km_at_last_mount"`
	TotalKm         int64   `json:"total_km"`
	RegroovingCount int     `json:"regrooving_count"`

	PriceLife1 decimal.Decimal  `json:"price_life_1"`
	PriceLife2 *decimal.Decimal `json:"price_life_2,omitempty"`
	PriceLife3 *decimal.Decimal `json:"price_life_3,omitempty"`
	PriceLife4 *decimal.Decimal `json:"price_life_4,omitempty"`

	Retread1 *string `json:"retread_1,omitempty"`
	Retread2 *string `json:"retread_2,omitempty"`
	Retread3 *string `json:"retread_3,omitempty"`

	CostPerKmLife1 *decimal.Decimal `json:"cost_per_km_life_1,omitempty"`
	CostPerKmLife2 *decimal.Decimal `json:"cost_per_km_life_2,omitempty"`
	CostPerKmLife3 *decimal.Decimal `json:"cost_per_km_life_3,omitempty"`
	CostPerKmLife4 *decimal.Decimal `json:"cost_per_km_life_4,omitempty"`
	CostPerKmTotal *decimal.Decimal `json:"cost_per_km_total,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps a persisted tire into its transport shape.
func FromModel(t *models.Tire) *TireDTO {
	if t == nil {
		return nil
	}
	return &TireDTO{
		ID:              t.ID,
		TireID:          t.TireID,
		ClientNIT:       t.ClientNIT,
		Brand:           t.Brand,
		Reference:       t.Reference,
		Dimension:       t.Dimension,
		CurrentLife:     t.CurrentLife,
		Availability:    t.Availability,
		RetreadState:    t.RetreadState,
		CurrentPlate:    t.CurrentPlate,
		CurrentPosition: t.CurrentPosition,
		KmAtLastMount:   t.KmAtLastMount,
		TotalKm:         t.TotalKm,
		RegroovingCount: t.RegroovingCount,
		PriceLife1:      t.PriceLife1,
		PriceLife2:      t.PriceLife2,
		PriceLife3:      t.PriceLife3,
		PriceLife4:      t.PriceLife4,
		Retread1:        t.Retread1,
		Retread2:        t.Retread2,
		Retread3:        t.Retread3,
		CostPerKmLife1:  t.CostPerKmLife1,
		CostPerKmLife2:  t.CostPerKmLife2,
		CostPerKmLife3:  t.CostPerKmLife3,
		CostPerKmLife4:  t.CostPerKmLife4,
		CostPerKmTotal:  t.CostPerKmTotal,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// FromModels maps a page of tires.
func FromModels(rows []models.Tire) []TireDTO {
	out := make([]TireDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
