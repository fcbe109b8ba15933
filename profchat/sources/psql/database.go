package psql

import (
	"context"
	"fmt"

	"profchat/profchat/config"
	"profchat/profchat/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the review store. The table is seeded by the offline
// loader, so nothing is migrated here.
func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	logging.AppLogger.Info("Connecting to database",
		zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	var currentDB string
	if err := db.WithContext(ctx).Raw("SELECT current_database()").Scan(&currentDB).Error; err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	logging.AppLogger.Info("Connected to DB", zap.String("db", currentDB))

	return &Database{DB: db}, nil
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
