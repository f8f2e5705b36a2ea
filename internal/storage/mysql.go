package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/yourorg/rotafacil/internal/config"
)

// Connect abre a conexão MariaDB a partir das Settings.
func Connect(cfg config.Settings) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return sql.Open("mysql", dsn)
}

// EnsureSchema cria a tabela de histórico se não existir.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS gps_fixes (
			id CHAR(36) PRIMARY KEY,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			altitude_m DOUBLE NULL,
			accuracy_m DOUBLE NOT NULL,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_gps_fixes_recorded (recorded_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`)
	return err
}

// MySQLStore persiste o histórico em MariaDB.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) SaveFix(ctx context.Context, rec FixRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gps_fixes (id, latitude, longitude, altitude_m, accuracy_m, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Lat, rec.Lon, rec.AltitudeMeters, rec.AccuracyMeters, rec.RecordedAt)
	return err
}

func (s *MySQLStore) RecentFixes(ctx context.Context, limit int) ([]FixRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, altitude_m, accuracy_m, recorded_at
		FROM gps_fixes
		ORDER BY recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FixRecord
	for rows.Next() {
		var rec FixRecord
		var alt sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.Lat, &rec.Lon, &alt, &rec.AccuracyMeters, &rec.RecordedAt); err != nil {
			return nil, err
		}
		if alt.Valid {
			rec.AltitudeMeters = &alt.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
