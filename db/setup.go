package db

import (
	"fmt"

	"github.com/autonotions/autonotions/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	return Open(postgres.Open(dsn))
}

// Open sets DB from any gorm dialector; tests pass an in-memory sqlite one.
func Open(dialector gorm.Dialector) error {
	var err error

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	return nil
}

func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Channel{},
		&models.Message{},
		&models.KanbanBoard{},
		&models.KanbanColumn{},
		&models.KanbanCard{},
		&models.Note{},
		&models.Notification{},
	}
}

// MigrateDatabase creates or extends every table. gorm orders the models by
// their foreign keys.
func MigrateDatabase() error {
	if err := DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database is not connected")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
