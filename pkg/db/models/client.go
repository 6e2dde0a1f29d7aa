package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a fleet owner. Vehicles and tires hang off its NIT.
type Client struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	NIT       string    `gorm:"column:nit;type:text;not null;uniqueIndex:ux_clients_nit"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Fronts    []string  `gorm:"column:fronts;type:jsonb;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
