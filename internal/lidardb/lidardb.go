// Package lidardb persists collection sessions and their accepted samples in
// SQLite so a capture can be re-rendered or compared later.
package lidardb

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
)

// insertBatchSize is the number of samples written per transaction.
const insertBatchSize = 500

// ErrSessionNotFound is returned when no session has the requested ID.
var ErrSessionNotFound = errors.New("lidar session not found")

// LidarDB stores collection sessions and their samples in SQLite.
type LidarDB struct {
	*sql.DB
}

// NewLidarDB opens (or creates) the database at path and migrates it to the
// latest schema.
func NewLidarDB(path string) (*LidarDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between
	// the migrator and the inserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ldb := &LidarDB{db}
	if err := ldb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("initialized lidar database schema")
	return ldb, nil
}

// LidarSession is the stored summary of one collection run.
type LidarSession struct {
	ID           string        `json:"session_id"`
	Port         string        `json:"port"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
	Frames       int           `json:"frames"`
	SamplesCount int           `json:"samples_count"`
	Rejected     int           `json:"rejected_count"`
	MaxRadiusM   float64       `json:"max_radius_m"`
	Cancelled    bool          `json:"cancelled"`
	SessionNotes string        `json:"session_notes"`
}

// InsertSession stores s. An empty ID is replaced with a new UUID, which is
// returned.
func (ldb *LidarDB) InsertSession(s LidarSession) (string, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO lidar_sessions (
			session_id, port, started_unix_ns, elapsed_ns, frames,
			samples_count, rejected_count, max_radius_m, cancelled, session_notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ldb.Exec(query,
		s.ID, s.Port, s.StartedAt.UnixNano(), int64(s.Elapsed), s.Frames,
		s.SamplesCount, s.Rejected, s.MaxRadiusM, s.Cancelled, s.SessionNotes)
	if err != nil {
		return "", fmt.Errorf("failed to insert lidar session: %w", err)
	}
	return s.ID, nil
}

// InsertSamples appends samples to a session, in order, one transaction per
// batch. Sequence numbers continue from any samples already stored.
func (ldb *LidarDB) InsertSamples(sessionID string, samples []l2frames.PolarSample) error {
	var next int64
	err := ldb.QueryRow(
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM lidar_samples WHERE session_id = ?`,
		sessionID).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read sample sequence: %w", err)
	}

	for batch := range slices.Chunk(samples, insertBatchSize) {
		if err := ldb.insertBatch(sessionID, next, batch); err != nil {
			return err
		}
		next += int64(len(batch))
	}
	return nil
}

func (ldb *LidarDB) insertBatch(sessionID string, seq int64, batch []l2frames.PolarSample) error {
	tx, err := ldb.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO lidar_samples (session_id, seq, angle_deg, distance_m)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range batch {
		if _, err := stmt.Exec(sessionID, seq+int64(i), s.AngleDeg, s.DistanceM); err != nil {
			return fmt.Errorf("failed to insert lidar sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

const sessionColumns = `
	session_id, port, started_unix_ns, elapsed_ns, frames,
	samples_count, rejected_count, max_radius_m, cancelled, session_notes
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (LidarSession, error) {
	var (
		s         LidarSession
		startedNs int64
		elapsedNs int64
	)
	err := r.Scan(&s.ID, &s.Port, &startedNs, &elapsedNs, &s.Frames,
		&s.SamplesCount, &s.Rejected, &s.MaxRadiusM, &s.Cancelled, &s.SessionNotes)
	if err != nil {
		return LidarSession{}, err
	}
	s.StartedAt = time.Unix(0, startedNs).UTC()
	s.Elapsed = time.Duration(elapsedNs)
	return s, nil
}

// GetSession returns the session with the given ID.
func (ldb *LidarDB) GetSession(id string) (LidarSession, error) {
	row := ldb.QueryRow(`SELECT `+sessionColumns+` FROM lidar_sessions WHERE session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LidarSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return LidarSession{}, fmt.Errorf("failed to get lidar session: %w", err)
	}
	return s, nil
}

// ListSessions returns up to limit sessions, newest first. limit <= 0 returns
// all of them.
func (ldb *LidarDB) ListSessions(limit int) ([]LidarSession, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := ldb.Query(
		`SELECT `+sessionColumns+` FROM lidar_sessions ORDER BY started_unix_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lidar sessions: %w", err)
	}
	defer rows.Close()

	var sessions []LidarSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Samples returns a session's stored samples in insertion order.
func (ldb *LidarDB) Samples(sessionID string) ([]l2frames.PolarSample, error) {
	rows, err := ldb.Query(
		`SELECT angle_deg, distance_m FROM lidar_samples WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lidar samples: %w", err)
	}
	defer rows.Close()

	var samples []l2frames.PolarSample
	for rows.Next() {
		var s l2frames.PolarSample
		if err := rows.Scan(&s.AngleDeg, &s.DistanceM); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// DeleteSession removes a session and, through the foreign key, its samples.
func (ldb *LidarDB) DeleteSession(id string) error {
	res, err := ldb.Exec(`DELETE FROM lidar_sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lidar session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
