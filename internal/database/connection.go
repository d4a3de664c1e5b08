package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDBName = "thoth.db"

// the daemon and CLI commands open the same file concurrently
const pragmas = "?_busy_timeout=5000&_journal_mode=WAL"

type DB struct {
	*gorm.DB
}

// GetDefaultDBPath returns ~/.config/thoth/thoth.db, creating the directory.
func GetDefaultDBPath() (string, error) {
	dir, err := config.BaseDir()
	if err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dir, defaultDBName), nil
}

// Connect opens the sqlite database at dbPath, or the default path when
// empty. ":memory:" is accepted for tests.
func Connect(dbPath string) (*DB, error) {
	dsn := dbPath
	switch dbPath {
	case "":
		p, err := GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
		dsn = p + pragmas
	case ":memory:":
	default:
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + pragmas
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Initialize() error {
	err := db.AutoMigrate(&models.LaunchEvent{}, &models.ErrorLog{})
	if err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
