package maintenance

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decortz/sill-backend/internal/idgen"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Repository manages the append-only maintenance ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.ServiceRecord) error
	ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.ServiceRecord, error)
	ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.ServiceRecord, error)
	ListByClient(ctx context.Context, nits []string, params pagination.Params) ([]models.ServiceRecord, error)
	MileagesByTireLife(ctx context.Context, tireID string) (map[int][]int64, error)
	LatestByTireID(ctx context.Context, tireID string) (*models.ServiceRecord, error)
	MaxCodeSuffix(ctx context.Context, prefix string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a maintenance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.ServiceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.ServiceRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.ServiceRecord{}).Where("tire_id = ?", tireID), params)
}

func (r *repository) ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.ServiceRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.ServiceRecord{}).Where("plate = ?", plate), params)
}

func (r *repository) ListByClient(ctx context.Context, nits []string, params pagination.Params) ([]models.ServiceRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceRecord{})
	if len(nits) > 0 {
		query = query.Where("tire_id IN (?)", r.db.Model(&models.Tire{}).
			Select("tire_id").Where("client_nit IN ?", nits))
	}
	return r.list(ctx, query, params)
}

// MileagesByTireLife returns every recorded mileage sample for the tire,
// grouped by the life it was taken in and ordered oldest first. The cost
// engine derives per-life kilometer spans from these.
func (r *repository) MileagesByTireLife(ctx context.Context, tireID string) (map[int][]int64, error) {
	var rows []struct {
		Life    int
		Mileage int64
	}
	err := r.db.WithContext(ctx).Model(&models.ServiceRecord{}).
		Select("life, mileage").
		Where("tire_id = ?", tireID).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int][]int64, 4)
	for _, row := range rows {
		out[row.Life] = append(out[row.Life], row.Mileage)
	}
	return out, nil
}

func (r *repository) LatestByTireID(ctx context.Context, tireID string) (*models.ServiceRecord, error) {
	var record models.ServiceRecord
	err := r.db.WithContext(ctx).
		Where("tire_id = ?", tireID).
		Order("occurred_at DESC, created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MaxCodeSuffix returns the highest consecutive among service codes carrying
// the prefix. Prefixes nest (AC also leads ACN), so the LIKE scan
// over-matches and the strict shape check happens in Go. Callers must hold a
// transaction so concurrent writers serialize on ux_service_records_code.
func (r *repository) MaxCodeSuffix(ctx context.Context, prefix string) (int64, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&models.ServiceRecord{}).
		Where("code LIKE ?", prefix+"%").
		Pluck("code", &codes).Error
	if err != nil {
		return 0, err
	}
	return int64(idgen.MaxServiceCodeSuffix(prefix, codes)), nil
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.ServiceRecord, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.ServiceRecord
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
