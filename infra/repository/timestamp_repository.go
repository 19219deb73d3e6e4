package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/amirasaad/fxconvert/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LastFetchKey is the settings row holding the last fetch time in ms.
const LastFetchKey = "rates.last_fetch_ms"

// TimestampRepository keeps the last fetch time in the settings table.
type TimestampRepository struct {
	db *gorm.DB
}

// NewTimestampRepository creates a timestamp store on db.
func NewTimestampRepository(db *gorm.DB) *TimestampRepository {
	return &TimestampRepository{db: db}
}

// Get implements repository.TimestampStore.
func (r *TimestampRepository) Get(ctx context.Context) (int64, error) {
	var s Setting
	err := r.db.WithContext(ctx).Where("name = ?", LastFetchKey).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	ms, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", LastFetchKey, s.Value, err)
	}
	return ms, nil
}

// Set implements repository.TimestampStore.
func (r *TimestampRepository) Set(ctx context.Context, ms int64) error {
	s := Setting{Name: LastFetchKey, Value: strconv.FormatInt(ms, 10)}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&s).Error
	})
}

var _ repository.TimestampStore = (*TimestampRepository)(nil)
