package tires

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Repository manages persistence for tires.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tire *models.Tire) error
	GetByTireID(ctx context.Context, tireID string) (*models.Tire, error)
	FindMountedByPlate(ctx context.Context, plate string) ([]models.Tire, error)
	FindMountedAtPosition(ctx context.Context, plate, position string) (*models.Tire, error)
	List(ctx context.Context, nits []string, params pagination.Params) ([]models.Tire, error)
	Save(ctx context.Context, tire *models.Tire) error
	Delete(ctx context.Context, tireID string) error
	AvailabilityCounts(ctx context.Context, nits []string) (map[enums.TireAvailability]int64, error)
	TireIDsWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tire repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tire *models.Tire) error {
	return r.db.WithContext(ctx).Create(tire).Error
}

// TireIDsWithPrefix feeds the id generator when a tire is registered without
// an explicit id.
func (r *repository) TireIDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Tire{}).
		Where("tire_id LIKE ?", prefix+"%").
		Pluck("tire_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) GetByTireID(ctx context.Context, tireID string) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).Where("tire_id = ?", tireID).First(&tire).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tire, nil
}

func (r *repository) FindMountedByPlate(ctx context.Context, plate string) ([]models.Tire, error) {
	var tires []models.Tire
	err := r.db.WithContext(ctx).
		Where("current_plate = ? AND availability = ?", plate, enums.TireAvailabilityMounted).
		Order("current_position ASC").
		Find(&tires).Error
	if err != nil {
		return nil, err
	}
	return tires, nil
}

func (r *repository) FindMountedAtPosition(ctx context.Context, plate, position string) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).
		Where("current_plate = ? AND current_position = ? AND availability = ?",
			plate, position, enums.TireAvailabilityMounted).
		First(&tire).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tire, nil
}

func (r *repository) List(ctx context.Context, nits []string, params pagination.Params) ([]models.Tire, error) {
	query := r.db.WithContext(ctx).Model(&models.Tire{})
	if len(nits) > 0 {
		query = query.Where("client_nit IN ?", nits)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) > (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var tires []models.Tire
	err = query.
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&tires).Error
	if err != nil {
		return nil, err
	}
	return tires, nil
}

func (r *repository) Save(ctx context.Context, tire *models.Tire) error {
	return r.db.WithContext(ctx).Save(tire).Error
}

func (r *repository) Delete(ctx context.Context, tireID string) error {
	return r.db.WithContext(ctx).Where("tire_id = ?", tireID).Delete(&models.Tire{}).Error
}

func (r *repository) AvailabilityCounts(ctx context.Context, nits []string) (map[enums.TireAvailability]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Tire{})
	if len(nits) > 0 {
		query = query.Where("client_nit IN ?", nits)
	}

	var rows []struct {
		Availability enums.TireAvailability
		Total        int64
	}
	err := query.
		Select("availability, COUNT(*) AS total").
		Group("availability").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[enums.TireAvailability]int64, len(rows))
	for _, row := range rows {
		out[row.Availability] = row.Total
	}
	return out, nil
}
