package repository

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"gorm.io/gorm"
)

// RateRepository stores the rate table in the currency_rates table and fans
// out every replacement to observers in this process.
type RateRepository struct {
	db        *gorm.DB
	mu        sync.Mutex // orders snapshot reads with subscriptions
	observers *repository.Observers
	logger    *slog.Logger
}

// NewRateRepository creates a rate store on db.
func NewRateRepository(db *gorm.DB, logger *slog.Logger) *RateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateRepository{
		db:        db,
		observers: repository.NewObservers(),
		logger:    logger.With("component", "rate_repository"),
	}
}

// ReplaceAll implements repository.RateStore. The delete and insert run in
// one transaction; the last record wins when a code repeats.
func (r *RateRepository) ReplaceAll(ctx context.Context, rates []domain.Rate) error {
	rows := toRows(rates)
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("1 = 1").Delete(&CurrencyRate{}).Error; err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			return tx.Create(&rows).Error
		})
	})
	if err != nil {
		r.logger.Error("Failed to replace rates", "count", len(rows), "error", err)
		return err
	}
	r.logger.Debug("Rates replaced", "count", len(rows))
	return r.Notify(ctx)
}

// All implements repository.RateStore.
func (r *RateRepository) All(ctx context.Context) ([]domain.Rate, error) {
	var rows []CurrencyRate
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Order("code").Find(&rows).Error
	}); err != nil {
		return nil, err
	}
	rates := make([]domain.Rate, len(rows))
	for i, row := range rows {
		rates[i] = domain.Rate{Code: row.Code, Rate: row.Rate}
	}
	return rates, nil
}

// ObserveAll implements repository.RateStore.
func (r *RateRepository) ObserveAll(ctx context.Context) (<-chan []domain.Rate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rates, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return r.observers.Subscribe(ctx, rates), nil
}

// Notify implements repository.Notifier. It re-reads the table and pushes it
// to observers, e.g. after another instance replaced the shared table.
func (r *RateRepository) Notify(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers.Len() == 0 {
		return nil
	}
	rates, err := r.All(ctx)
	if err != nil {
		return err
	}
	r.observers.Publish(rates)
	return nil
}

func toRows(rates []domain.Rate) []CurrencyRate {
	byCode := make(map[string]float64, len(rates))
	for _, rate := range rates {
		byCode[rate.Code] = rate.Rate
	}
	rows := make([]CurrencyRate, 0, len(byCode))
	for code, rate := range byCode {
		rows = append(rows, CurrencyRate{Code: code, Rate: rate})
	}
	slices.SortFunc(rows, func(a, b CurrencyRate) int { return cmp.Compare(a.Code, b.Code) })
	return rows
}

var (
	_ repository.RateStore = (*RateRepository)(nil)
	_ repository.Notifier  = (*RateRepository)(nil)
)
