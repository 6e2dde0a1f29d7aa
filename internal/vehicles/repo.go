package vehicles

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Repository manages persistence for fleet vehicles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	GetByClientCode(ctx context.Context, clientNIT, code string) (*models.Vehicle, error)
	List(ctx context.Context, nits []string, params pagination.Params) ([]models.Vehicle, error)
	Save(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, plate string) error
	CountMountedTires(ctx context.Context, plate string) (int64, error)
	StatusCounts(ctx context.Context, nits []string) (map[enums.VehicleStatus]int64, error)
	CodesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vehicle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repository) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) GetByClientCode(ctx context.Context, clientNIT, code string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("client_nit = ? AND code = ?", clientNIT, code).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) List(ctx context.Context, nits []string, params pagination.Params) ([]models.Vehicle, error) {
	query := r.db.WithContext(ctx).Model(&models.Vehicle{})
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

	var vehicles []models.Vehicle
	err = query.
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repository) Save(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *repository) Delete(ctx context.Context, plate string) error {
	return r.db.WithContext(ctx).Where("plate = ?", plate).Delete(&models.Vehicle{}).Error
}

func (r *repository) CountMountedTires(ctx context.Context, plate string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tire{}).
		Where("current_plate = ? AND availability = ?", plate, enums.TireAvailabilityMounted).
		Count(&count).Error
	return count, err
}

// CodesWithPrefix feeds the code generator; the numeric segment parsing
// happens in Go because the suffix sits between the prefix and an underscore.
func (r *repository) CodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("code LIKE ?", prefix+"%").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) StatusCounts(ctx context.Context, nits []string) (map[enums.VehicleStatus]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Vehicle{})
	if len(nits) > 0 {
		query = query.Where("client_nit IN ?", nits)
	}

	var rows []struct {
		Status enums.VehicleStatus
		Total  int64
	}
	err := query.
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[enums.VehicleStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
