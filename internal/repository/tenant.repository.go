package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"gorm.io/gorm"
)

type TenantRepository struct {
	*pg.DB
}

func NewTenantRepository(db *pg.DB) *TenantRepository {
	return &TenantRepository{
		db,
	}
}

func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) (*model.Tenant, error) {
	entity := toTenantEntity(t)

	// active carries no gorm default, a false value must reach the insert
	err := r.Write(ctx).WithContext(ctx).Create(entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, ErrDuplicateAPIKey
		}
		return nil, err
	}

	return toTenantModel(entity), nil
}

func (r *TenantRepository) Get(ctx context.Context, id int64) (*model.Tenant, error) {
	var entity TenantEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTenantModel(&entity), nil
}

func (r *TenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error) {
	var entity TenantEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("api_key = ?", apiKey).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTenantModel(&entity), nil
}

func (r *TenantRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TenantEntity{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
