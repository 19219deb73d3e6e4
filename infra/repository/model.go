package repository

import "time"

// CurrencyRate is one row of the local rate table.
type CurrencyRate struct {
	Code      string  `gorm:"primaryKey;type:varchar(16)"`
	Rate      float64 `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName sets the table name for gorm.
func (CurrencyRate) TableName() string { return "currency_rates" }

// Setting is a key/value row for scalar application state.
type Setting struct {
	Name      string `gorm:"primaryKey;type:varchar(64)"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName sets the table name for gorm.
func (Setting) TableName() string { return "settings" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&CurrencyRate{}, &Setting{}}
}
