package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			hazard_type TEXT NOT NULL,
			level INTEGER NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			location_name TEXT,
			confidence REAL NOT NULL,
			description TEXT,
			timestamp DATETIME NOT NULL,
			channel_results TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
		CREATE INDEX IF NOT EXISTS idx_alerts_level ON alerts(level);
		CREATE INDEX IF NOT EXISTS idx_alerts_hazard_type ON alerts(hazard_type);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Add(ctx context.Context, a *models.Alert) error {
	results, err := json.Marshal(a.ChannelResults)
	if err != nil {
		return fmt.Errorf("error marshaling channel results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, hazard_type, level, latitude, longitude, location_name, confidence, description, timestamp, channel_results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.HazardType), int(a.Level), a.Location.Latitude, a.Location.Longitude,
		a.Location.Name, a.Confidence, a.Description, a.Timestamp, string(results),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, hazard_type, level, latitude, longitude, location_name, confidence, description, timestamp, channel_results
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning alert: %w", err)
	}
	return a, nil
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	query := `
		SELECT id, hazard_type, level, latitude, longitude, location_name, confidence, description, timestamp, channel_results
		FROM alerts WHERE 1=1`
	var args []any

	if opts.HazardType != nil {
		query += " AND hazard_type = ?"
		args = append(args, string(*opts.HazardType))
	}
	if opts.Level != nil {
		query += " AND level = ?"
		args = append(args, int(*opts.Level))
	}
	if opts.MinLevel != nil {
		query += " AND level >= ?"
		args = append(args, int(*opts.MinLevel))
	}
	if opts.Since != nil {
		query += " AND timestamp >= ?"
		args = append(args, *opts.Since)
	}

	query += " ORDER BY timestamp DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) CountAlerts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting alerts: %w", err)
	}
	return count, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.Alert, error) {
	var (
		a       models.Alert
		hazard  string
		level   int
		results sql.NullString
	)
	err := row.Scan(&a.ID, &hazard, &level, &a.Location.Latitude, &a.Location.Longitude,
		&a.Location.Name, &a.Confidence, &a.Description, &a.Timestamp, &results)
	if err != nil {
		return nil, err
	}

	a.HazardType = models.HazardType(hazard)
	a.Level = models.AlertLevel(level)
	if results.Valid && results.String != "" && results.String != "null" {
		if err := json.Unmarshal([]byte(results.String), &a.ChannelResults); err != nil {
			return nil, fmt.Errorf("error unmarshaling channel results: %w", err)
		}
	}
	return &a, nil
}
