package repository

import (
	"github.com/nimasrn/admissions-inbox/internal/model"
)

type TenantEntity struct {
	ID         int64  `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	Name       string `db:"name"        gorm:"column:name;not null"`
	APIKey     string `db:"api_key"     gorm:"column:api_key;not null;unique"`
	ChannelRef string `db:"channel_ref" gorm:"column:channel_ref;not null"`
	Active     bool   `db:"active"      gorm:"column:active;not null"`
}

func (TenantEntity) TableName() string {
	return "tenants"
}

func toTenantEntity(m *model.Tenant) *TenantEntity {
	if m == nil {
		return nil
	}
	return &TenantEntity{
		ID:         m.ID,
		Name:       m.Name,
		APIKey:     m.APIKey,
		ChannelRef: m.ChannelRef,
		Active:     m.Active,
	}
}

func toTenantModel(e *TenantEntity) *model.Tenant {
	if e == nil {
		return nil
	}
	return &model.Tenant{
		ID:         e.ID,
		Name:       e.Name,
		APIKey:     e.APIKey,
		ChannelRef: e.ChannelRef,
		Active:     e.Active,
	}
}
