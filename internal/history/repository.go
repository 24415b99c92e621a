package history

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository handles all database operations for runs
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Save inserts run together with its attempts
func (r *Repository) Save(run *Run) error {
	result := r.db.Create(run)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert run")
	}
	return nil
}

// Recent returns up to limit runs, newest first, with their attempts
func (r *Repository) Recent(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []*Run
	result := r.db.Preload("Attempts", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&runs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query runs")
	}
	return runs, nil
}

// ByTarget returns runs for one target since the given time, oldest first
func (r *Repository) ByTarget(target string, since time.Time) ([]*Run, error) {
	var runs []*Run
	result := r.db.Where("target = ? AND created_at >= ?", target, since).
		Order("created_at ASC").
		Find(&runs)
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to query runs for %q", target)
	}
	return runs, nil
}

// Prune deletes runs created before the given time and returns how many
// runs were removed.
func (r *Repository) Prune(before time.Time) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&Run{}).Select("id").Where("created_at < ?", before)
		if err := tx.Where("run_id IN (?)", old).Delete(&Attempt{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete old attempts")
		}
		result := tx.Where("created_at < ?", before).Delete(&Run{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to delete old runs")
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Count returns the number of stored runs
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&Run{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count runs")
	}
	return n, nil
}
