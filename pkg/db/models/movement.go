package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/pkg/enums"
)

// Movement is one append-only entry in the tire movement ledger.
type Movement struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Sequence int64     `gorm:"column:sequence;not null;uniqueIndex:ux_movements_sequence"`

	TireID     string             `gorm:"column:tire_id;type:text;not null;index:ix_movements_tire_id"`
	OccurredAt time.Time          `gorm:"column:occurred_at;not null"`
	Type       enums.MovementType `gorm:"column:type;type:text;not null"`
	Life       int                `gorm:"column:life;not null"`

	Plate    string `gorm:"column:plate;type:text;index:ix_movements_plate"`
	Position string `gorm:"column:position;type:text"`
	Mileage  int64  `gorm:"column:mileage;not null;default:0"`

	NewAvailability *enums.TireAvailability `gorm:"column:new_availability;type:text"`

	RetreadBrand     *string          `gorm:"column:retread_brand;type:text"`
	RetreadReference *string          `gorm:"column:retread_reference;type:text"`
	RetreadPrice     *decimal.Decimal `gorm:"column:retread_price;type:numeric(14,2)"`

	RecordedBy string    `gorm:"column:recorded_by;type:text;not null"`
	Notes      string    `gorm:"column:notes;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
