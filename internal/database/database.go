package database

import (
	"database/sql"
	"fmt"

	"github.com/dronedata/camerapos/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		Logger: log,
	}
}

// ConnectSqlite opens the SQLite file at path and checks the connection.
func (m *Manager) ConnectSqlite(path string) error {
	db, err := GetSqliteDBStandalone(path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	return m.use(db)
}

// ConnectPostgres opens the Postgres database described by the db.* settings.
func (m *Manager) ConnectPostgres() error {
	db, err := GetPostgresDBStandalone()
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}
	if err := m.use(db); err != nil {
		return err
	}
	m.SqlDB.SetMaxOpenConns(10)
	m.Logger.Info().Msg("Connected to database")
	return nil
}

func (m *Manager) use(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	m.DB = db
	m.SqlDB = sqlDB
	return nil
}

// Setup migrates the schema.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return fmt.Errorf("database not connected")
	}
	m.Logger.Debug().Str("dialect", m.DB.Dialector.Name()).Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// Standalone functions for direct usage without Manager

// PostgresDSN builds the connection string from the db.* settings.
func PostgresDSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)
}

// GetPostgresDBStandalone returns a connection to the Postgres database using viper config.
func GetPostgresDBStandalone() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDBStandalone returns a connection to a SQLite database.
// If path is empty, uses a private in-memory database.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// in-memory databases are per connection
	if path == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}
