package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/pkg/enums"
)

// Tire carries the full lifecycle state of a casing: which life it is on,
// where it sits, its per-life prices and the derived cost figures.
type Tire struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TireID    string    `gorm:"column:tire_id;type:text;not null;uniqueIndex:ux_tires_tire_id"`
	ClientNIT string    `gorm:"column:client_nit;type:text;not null;index:ix_tires_client_nit"`
	Brand     string    `gorm:"column:brand;type:text;not null"`
	Reference string    `gorm:"column:reference;type:text;not null"`
	Dimension string    `gorm:"column:dimension;type:text;not null"`

	CurrentLife  int                    `gorm:"column:current_life;not null;default:1"`
	Availability enums.TireAvailability `gorm:"column:availability;type:text;not null;default:'new'"`
	RetreadState enums.RetreadState     `gorm:"column:retread_state;type:text;not null;default:''"`

	CurrentPlate    *string `gorm:"column:current_plate;type:text;index:ix_tires_current_plate"`
	CurrentPosition *string `gorm:"column:current_position;type:text"`
	KmAtLastMount   int64   `gorm:"column:km_at_last_mount;not null;default:0"`
	TotalKm         int64   `gorm:"column:total_km;not null;default:0"`
	RegroovingCount int     `gorm:"column:regrooving_count;not null;default:0"`

	PriceLife1 decimal.Decimal  `gorm:"column:price_life_1;type:numeric(14,2);not null"`
	PriceLife2 *decimal.Decimal `gorm:"column:price_life_2;type:numeric(14,2)"`
	PriceLife3 *decimal.Decimal `gorm:"column:price_life_3;type:numeric(14,2)"`
	PriceLife4 *decimal.Decimal `gorm:"column:price_life_4;type:numeric(14,2)"`

	Retread1 *string `gorm:"column:retread_1;type:text"`
	Retread2 *string `gorm:"column:retread_2;type:text"`
	Retread3 *string `gorm:"column:retread_3;type:text"`

	CostPerKmLife1 *decimal.Decimal `gorm:"column:cost_per_km_life_1;type:numeric(14,2)"`
	CostPerKmLife2 *decimal.Decimal `gorm:"column:cost_per_km_life_2;type:numeric(14,2)"`
	CostPerKmLife3 *decimal.Decimal `gorm:"column:cost_per_km_life_3;type:numeric(14,2)"`
	CostPerKmLife4 *decimal.Decimal `gorm:"column:cost_per_km_life_4;type:numeric(14,2)"`
	CostPerKmTotal *decimal.Decimal `gorm:"column:cost_per_km_total;type:numeric(14,2)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceForLife returns the purchase/retread price recorded for the given life.
func (t *Tire) PriceForLife(life int) *decimal.Decimal {
	switch life {
	case 1:
		price := t.PriceLife1
		return &price
	case 2:
		return t.PriceLife2
	case 3:
		return t.PriceLife3
	case 4:
		return t.PriceLife4
	default:
		return nil
	}
}

// SetPriceForLife stores the price for the given life; life 1 must be non-nil.
func (t *Tire) SetPriceForLife(life int, price *decimal.Decimal) {
	switch life {
	case 1:
		if price != nil {
			t.PriceLife1 = *price
		}
	case 2:
		t.PriceLife2 = price
	case 3:
		t.PriceLife3 = price
	case 4:
		t.PriceLife4 = price
	}
}

// SetRetreadForLife stores the retread description leading into the given life
// (life 2 uses slot 1, and so on).
func (t *Tire) SetRetreadForLife(life int, description string) {
	switch life {
	case 2:
		t.Retread1 = &description
	case 3:
		t.Retread2 = &description
	case 4:
		t.Retread3 = &description
	}
}

// SetCostPerKmForLife stores the derived per-life cost, nil clearing it.
func (t *Tire) SetCostPerKmForLife(life int, cost *decimal.Decimal) {
	switch life {
	case 1:
		t.CostPerKmLife1 = cost
	case 2:
		t.CostPerKmLife2 = cost
	case 3:
		t.CostPerKmLife3 = cost
	case 4:
		t.CostPerKmLife4 = cost
	}
}
