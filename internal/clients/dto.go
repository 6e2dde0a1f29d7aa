package clients

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/db/models"
)

// ClientDTO is the transport shape of a fleet owner.
type ClientDTO struct {
	ID        uuid.UUID `json:"id"`
	NIT       string    `json:"nit"`
	Name      string    `json:"name"`
	Fronts    []string  `json:"fronts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel maps a persisted client into its transport shape.
func FromModel(c *models.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	return &ClientDTO{
		ID:        c.ID,
		NIT:       c.NIT,
		Name:      c.Name,
		Fronts:    append([]string(nil), c.Fronts...),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromModels maps a page of clients.
func FromModels(rows []models.Client) []ClientDTO {
	out := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
