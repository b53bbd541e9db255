package models

import (
	"time"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt int64     `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64     `gorm:"not null;autoUpdateTime:milli"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: shared.FromEpochMillis(m.CreatedAt),
		UpdatedAt: shared.FromEpochMillis(m.UpdatedAt),
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = shared.ToEpochMillis(e.CreatedAt)
	m.UpdatedAt = shared.ToEpochMillis(e.UpdatedAt)
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := shared.ToEpochMillis(*t)
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := shared.FromEpochMillis(*ms)
	return &t
}
