// pkg/database/database.go
package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	DSN        string
	SQLitePath string
	Quiet      bool
}

// Open connects to the configured store. "postgres" is the remote
// production database, "sqlite" is a local file used in development and tests.
func Open(config *Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if config.Quiet {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	switch config.Driver {
	case "sqlite":
		return openSQLite(config, gcfg)
	case "", "postgres":
		return openPostgres(config, gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func openPostgres(config *Config, gcfg *gorm.Config) (*gorm.DB, error) {
	dsn := config.DSN
	if dsn == "" {
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.Host,
			config.User,
			config.Password,
			config.DBName,
			config.Port,
			sslMode,
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func openSQLite(config *Config, gcfg *gorm.Config) (*gorm.DB, error) {
	path := config.SQLitePath
	if path == "" {
		path = "database.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=on"), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// Migrate creates missing tables and columns. It never drops anything.
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
