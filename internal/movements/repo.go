package movements

import (
	"context"

	"gorm.io/gorm"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Repository manages the append-only tire movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.Movement) error
	NextSequence(ctx context.Context) (int64, error)
	LastMileageByPlate(ctx context.Context, plate string) (int64, error)
	ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.Movement, error)
	ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.Movement, error)
	ListByClient(ctx context.Context, nits []string, params pagination.Params) ([]models.Movement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.Movement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// NextSequence allocates the next ledger sequence number. Callers must hold
// a transaction so concurrent writers serialize on ux_movements_sequence.
func (r *repository) NextSequence(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&models.Movement{}).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// LastMileageByPlate returns the highest odometer reading recorded against
// the plate, 0 when the ledger has none.
func (r *repository) LastMileageByPlate(ctx context.Context, plate string) (int64, error) {
	var mileage int64
	err := r.db.WithContext(ctx).Model(&models.Movement{}).
		Select("COALESCE(MAX(mileage), 0)").
		Where("plate = ?", plate).
		Scan(&mileage).Error
	if err != nil {
		return 0, err
	}
	return mileage, nil
}

func (r *repository) ListByTireID(ctx context.Context, tireID string, params pagination.Params) ([]models.Movement, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Movement{}).Where("tire_id = ?", tireID), params)
}

func (r *repository) ListByPlate(ctx context.Context, plate string, params pagination.Params) ([]models.Movement, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Movement{}).Where("plate = ?", plate), params)
}

func (r *repository) ListByClient(ctx context.Context, nits []string, params pagination.Params) ([]models.Movement, error) {
	query := r.db.WithContext(ctx).Model(&models.Movement{})
	if len(nits) > 0 {
		query = query.Where("tire_id IN (?)", r.db.Model(&models.Tire{}).
			Select("tire_id").Where("client_nit IN ?", nits))
	}
	return r.list(ctx, query, params)
}

// list pages the ledger newest-first; the cursor walks backwards in time.
func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Movement, error) {
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

	var movements []models.Movement
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
