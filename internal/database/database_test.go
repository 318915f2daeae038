package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/dronedata/camerapos/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSqlite_Setup(t *testing.T) {
	m := NewManager(zerolog.New(io.Discard))
	require.NoError(t, m.ConnectSqlite(filepath.Join(t.TempDir(), "runs.db")))
	defer m.Close()

	require.NoError(t, m.Setup())

	for _, table := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(table))
	}
}

func TestGetSqliteDBStandalone_InMemory(t *testing.T) {
	db, err := GetSqliteDBStandalone("")
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Run{}))
	require.NoError(t, db.Create(&model.Run{UUID: "r-1"}).Error)

	var count int64
	require.NoError(t, db.Model(&model.Run{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetup_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.Setup())
	assert.NoError(t, m.Close())
}

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "db.local")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "geo")
	viper.Set("db.password", "pw")
	viper.Set("db.database", "flights")

	assert.Equal(t, "host=db.local port=5433 user=geo password=pw dbname=flights sslmode=disable", PostgresDSN())
}
