package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/platelens/backend/internal/domain"
)

// SQLiteStore keeps the meal log in a SQLite file. Every operation opens its
// own connection and closes it before returning.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore creates the meal_logs table in the file at path if needed
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	store := &SQLiteStore{path: path}

	err := store.withConn(func(db *sql.DB) error {
		return initSchema(ctx, db)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS meal_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT,
        meal_data TEXT,
        health_score REAL
    );

    CREATE INDEX IF NOT EXISTS idx_meal_logs_date ON meal_logs(date);
    `

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) withConn(fn func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

// Save appends record and sets its ID
func (s *SQLiteStore) Save(ctx context.Context, record *domain.MealLogRecord) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	return s.withConn(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO meal_logs (date, meal_data, health_score) VALUES (?, ?, ?)`,
			row.Date, row.MealData, row.HealthScore)
		if err != nil {
			return fmt.Errorf("failed to insert meal log: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read meal log id: %w", err)
		}
		record.ID = id
		return nil
	})
}

// Recent returns up to limit records, newest first
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.MealLogRecord, error) {
	records := []domain.MealLogRecord{}

	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
        SELECT id, date, meal_data, health_score
        FROM meal_logs
        ORDER BY date DESC, id DESC
        LIMIT ?
    `, limit)
		if err != nil {
			return fmt.Errorf("failed to query meal logs: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var row mealLogRow
			if err := rows.Scan(&row.ID, &row.Date, &row.MealData, &row.HealthScore); err != nil {
				return fmt.Errorf("failed to scan meal log: %w", err)
			}

			record, err := toRecord(row)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
