package infra

import (
	"testing"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBConnection_SQLite(t *testing.T) {
	db, err := NewDBConnection(&config.DB{Url: "file::memory:"}, "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.True(t, db.Migrator().HasTable("currency_rates"))
	assert.True(t, db.Migrator().HasTable("settings"))
}

func TestNewDBConnection_MissingURL(t *testing.T) {
	_, err := NewDBConnection(&config.DB{}, "test")
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = NewDBConnection(nil, "test")
	assert.Error(t, err)
}

func TestDialectorFor(t *testing.T) {
	d, isSQLite := dialectorFor("postgres://u:p@localhost:5432/fx")
	assert.False(t, isSQLite)
	assert.Equal(t, "postgres", d.Name())

	d, isSQLite = dialectorFor("postgresql://localhost/fx")
	assert.False(t, isSQLite)
	assert.Equal(t, "postgres", d.Name())

	d, isSQLite = dialectorFor("file:fxconvert.db")
	assert.True(t, isSQLite)
	assert.Equal(t, "sqlite", d.Name())
}
