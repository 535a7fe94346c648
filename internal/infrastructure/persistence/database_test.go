package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return &Database{DB: db}, mock
}

func TestDatabase_PingAndStats(t *testing.T) {
	d, mock := newMockDatabase(t)

	mock.ExpectPing()
	assert.NoError(t, d.Ping(context.Background()))

	stats, err := d.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)

	mock.ExpectClose()
	assert.NoError(t, d.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDialector_DisablesStatementCache(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "secret", DBName: "expenses", SSLMode: "disable"}

	d, ok := newDialector(cfg).(*postgres.Dialector)
	require.True(t, ok)
	assert.True(t, d.PreferSimpleProtocol, "prepared statements would outlive a search_path switch")
	assert.Equal(t, cfg.DSN(), d.DSN)
}
