package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
	"gorm.io/gorm"
)

type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) List(ctx context.Context) ([]reference.Range, error) {
	var rows []reference.Range
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing reference ranges: %w", err)
	}
	return rows, nil
}

// ReplaceAll deletes the stored table and inserts entries in one transaction.
// Positions start at 1 and follow the slice order.
func (r *ReferenceRepository) ReplaceAll(ctx context.Context, entries []reference.Entry) error {
	rows := make([]reference.Range, len(entries))
	for i, e := range entries {
		rows[i] = reference.NewRange(i+1, e)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&reference.Range{}).Error; err != nil {
			return fmt.Errorf("clearing reference ranges: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("inserting reference ranges: %w", err)
		}
		return nil
	})
}

var _ reference.Repository = (*ReferenceRepository)(nil)
