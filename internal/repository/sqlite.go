package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

type SQLiteDB struct {
	db atomic.Pointer[sql.DB]
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// from splitting across pool connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{}
	s.db.Store(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

// conn panics when the database was never opened or is already closed:
// that is a wiring bug in the caller, not a runtime condition.
func (s *SQLiteDB) conn() *sql.DB {
	if s == nil {
		panic("repository: nil SQLiteDB")
	}
	db := s.db.Load()
	if db == nil {
		panic("repository: SQLiteDB used before NewSQLiteDB or after Close")
	}
	return db
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			occurred_at INTEGER NOT NULL,
			magnitude REAL NOT NULL,
			payload BLOB NOT NULL,
			cached_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS saved_places (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			radius_km REAL NOT NULL,
			min_magnitude REAL NOT NULL,
			alerts_enabled INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at);
		CREATE INDEX IF NOT EXISTS idx_events_cached_at ON events(cached_at);
	`

	_, err := s.conn().Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	db := s.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}

func (s *SQLiteDB) UpsertEvents(ctx context.Context, events []models.HazardEvent, cachedAt time.Time) error {
	tx, err := s.conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, occurred_at, magnitude, payload, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			occurred_at = excluded.occurred_at,
			magnitude = excluded.magnitude,
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`)
	if err != nil {
		return fmt.Errorf("error preparing upsert: %w", err)
	}
	defer stmt.Close()

	cached := cachedAt.UnixMilli()
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("error encoding event %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.OccurredAt.UnixMilli(), e.Magnitude, payload, cached); err != nil {
			return fmt.Errorf("error upserting event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing events: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListEvents(ctx context.Context, q EventQuery) ([]models.HazardEvent, error) {
	var where []string
	var args []any

	if !q.CachedAfter.IsZero() {
		where = append(where, "cached_at >= ?")
		args = append(args, q.CachedAfter.UnixMilli())
	}
	if q.MinTime != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, q.MinTime.UnixMilli())
	}
	if q.MinMagnitude != nil {
		where = append(where, "magnitude >= ?")
		args = append(args, *q.MinMagnitude)
	}

	query := "SELECT payload FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id ASC"

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	events := make([]models.HazardEvent, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		var e models.HazardEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("error decoding event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func (s *SQLiteDB) DeleteEventsCachedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn().ExecContext(ctx, "DELETE FROM events WHERE cached_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("error pruning events: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) LoadPreferences(ctx context.Context) (*models.Preferences, error) {
	var payload []byte
	err := s.conn().QueryRowContext(ctx, "SELECT payload FROM preferences WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading preferences: %w", err)
	}

	var p models.Preferences
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("error decoding preferences: %w", err)
	}
	return &p, nil
}

func (s *SQLiteDB) SavePreferences(ctx context.Context, p models.Preferences) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error encoding preferences: %w", err)
	}
	_, err = s.conn().ExecContext(ctx, `
		INSERT INTO preferences (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, payload, p.LastUpdated.UnixMilli())
	if err != nil {
		return fmt.Errorf("error saving preferences: %w", err)
	}
	return nil
}

func (s *SQLiteDB) AddPlace(ctx context.Context, p models.SavedPlace) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO saved_places (id, name, latitude, longitude, radius_km, min_magnitude, alerts_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Latitude, p.Longitude, p.RadiusKm, p.MinMagnitude, p.AlertsEnabled, p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("error adding place %s: %w", p.ID, err)
	}
	return nil
}

const placeColumns = "id, name, latitude, longitude, radius_km, min_magnitude, alerts_enabled, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(row scanner) (models.SavedPlace, error) {
	var p models.SavedPlace
	var created int64
	err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.RadiusKm, &p.MinMagnitude, &p.AlertsEnabled, &created)
	if err != nil {
		return models.SavedPlace{}, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	return p, nil
}

func (s *SQLiteDB) GetPlace(ctx context.Context, id string) (*models.SavedPlace, error) {
	row := s.conn().QueryRowContext(ctx, "SELECT "+placeColumns+" FROM saved_places WHERE id = ?", id)
	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("place %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting place %s: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteDB) ListPlaces(ctx context.Context) ([]models.SavedPlace, error) {
	rows, err := s.conn().QueryContext(ctx, "SELECT "+placeColumns+" FROM saved_places ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying places: %w", err)
	}
	defer rows.Close()

	places := make([]models.SavedPlace, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating places: %w", err)
	}
	return places, nil
}

func (s *SQLiteDB) DeletePlace(ctx context.Context, id string) error {
	res, err := s.conn().ExecContext(ctx, "DELETE FROM saved_places WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting place %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting place %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("place %s: %w", id, ErrNotFound)
	}
	return nil
}
