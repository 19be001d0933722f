package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/platelens/backend/internal/domain"
)

// PostgresStore keeps the meal log in PostgreSQL through gorm. Like
// SQLiteStore it opens a connection per operation.
type PostgresStore struct {
	dsn string
}

// NewPostgresStore migrates the meal_logs table at dsn
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	store := &PostgresStore{dsn: dsn}

	err := store.withConn(ctx, func(db *gorm.DB) error {
		return db.AutoMigrate(&mealLogRow{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate meal_logs: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) withConn(ctx context.Context, fn func(db *gorm.DB) error) error {
	db, err := gorm.Open(postgres.Open(s.dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection: %w", err)
	}
	defer sqlDB.Close()

	return fn(db.WithContext(ctx))
}

// Save appends record and sets its ID
func (s *PostgresStore) Save(ctx context.Context, record *domain.MealLogRecord) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	return s.withConn(ctx, func(db *gorm.DB) error {
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert meal log: %w", err)
		}
		record.ID = row.ID
		return nil
	})
}

// Recent returns up to limit records, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]domain.MealLogRecord, error) {
	var rows []mealLogRow

	err := s.withConn(ctx, func(db *gorm.DB) error {
		return db.Order("date DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query meal logs: %w", err)
	}

	records := make([]domain.MealLogRecord, 0, len(rows))
	for _, row := range rows {
		record, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
