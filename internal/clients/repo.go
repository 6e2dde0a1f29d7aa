package clients

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/pagination"
)

// Repository manages persistence for fleet clients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, client *models.Client) error
	GetByNIT(ctx context.Context, nit string) (*models.Client, error)
	List(ctx context.Context, nits []string, params pagination.Params) ([]models.Client, error)
	Save(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, nit string) error
	HasDependents(ctx context.Context, nit string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a client repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *repository) GetByNIT(ctx context.Context, nit string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("nit = ?", nit).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *repository) List(ctx context.Context, nits []string, params pagination.Params) ([]models.Client, error) {
	query := r.db.WithContext(ctx).Model(&models.Client{})
	if len(nits) > 0 {
		query = query.Where("nit IN ?", nits)
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

	var clients []models.Client
	err = query.
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repository) Save(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *repository) Delete(ctx context.Context, nit string) error {
	return r.db.WithContext(ctx).Where("nit = ?", nit).Delete(&models.Client{}).Error
}

func (r *repository) HasDependents(ctx context.Context, nit string) (bool, error) {
	var vehicles int64
	if err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("client_nit = ?", nit).Count(&vehicles).Error; err != nil {
		return false, err
	}
	if vehicles > 0 {
		return true, nil
	}

	var tires int64
	if err := r.db.WithContext(ctx).Model(&models.Tire{}).
		Where("client_nit = ?", nit).Count(&tires).Error; err != nil {
		return false, err
	}
	return tires > 0, nil
}
