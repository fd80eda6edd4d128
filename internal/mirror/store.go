package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no row matches the key.
var ErrNotFound = errors.New("mirrored event not found")

// Record is one mirrored event, keyed by (CalendarID, RemoteEventID).
// StartTime and EndTime hold the remote representation: an RFC 3339
// date-time or a YYYY-MM-DD date for all-day events.
type Record struct {
	CalendarID    string    `json:"calendarId"`
	RemoteEventID string    `json:"remoteEventId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Link          string    `json:"link,omitempty"`
	Recurrence    []string  `json:"recurrence,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store reads and writes mirrored events.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a Store over db.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert inserts r or replaces the row with the same key. UpdatedAt moves to
// the current time only when a stored column changes, so writing the same
// values again leaves the row untouched. On return r.UpdatedAt holds the
// stored value.
func (s *Store) Upsert(ctx context.Context, r *Record) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mirrored_events (
			calendar_id, remote_event_id, name, description, location,
			start_time, end_time, html_link, recurrence, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (calendar_id, remote_event_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			location = excluded.location,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			html_link = excluded.html_link,
			recurrence = excluded.recurrence,
			updated_at = excluded.updated_at
		WHERE name IS NOT excluded.name
			OR description IS NOT excluded.description
			OR location IS NOT excluded.location
			OR start_time IS NOT excluded.start_time
			OR end_time IS NOT excluded.end_time
			OR html_link IS NOT excluded.html_link
			OR recurrence IS NOT excluded.recurrence
	`,
		r.CalendarID, r.RemoteEventID, r.Name, r.Description, r.Location,
		r.StartTime, r.EndTime, r.Link, joinRules(r.Recurrence), now,
	)
	if err != nil {
		return fmt.Errorf("upserting mirrored event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting upserted events: %w", err)
	}
	if n > 0 {
		r.UpdatedAt = now
		return nil
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM mirrored_events WHERE calendar_id = ? AND remote_event_id = ?",
		r.CalendarID, r.RemoteEventID).Scan(&r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("querying mirrored event: %w", err)
	}
	return nil
}

// Delete removes the row for the key. A missing row is not an error.
func (s *Store) Delete(ctx context.Context, calendarID, remoteEventID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM mirrored_events WHERE calendar_id = ? AND remote_event_id = ?",
		calendarID, remoteEventID)
	if err != nil {
		return fmt.Errorf("deleting mirrored event: %w", err)
	}
	return nil
}

// Get returns the row for the key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, calendarID, remoteEventID string) (*Record, error) {
	r := &Record{}
	var rules string
	err := s.db.QueryRowContext(ctx, `
		SELECT calendar_id, remote_event_id, name, description, location,
		       start_time, end_time, html_link, recurrence, updated_at
		FROM mirrored_events
		WHERE calendar_id = ? AND remote_event_id = ?
	`, calendarID, remoteEventID).Scan(
		&r.CalendarID, &r.RemoteEventID, &r.Name, &r.Description, &r.Location,
		&r.StartTime, &r.EndTime, &r.Link, &rules, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mirrored event: %w", err)
	}
	r.Recurrence = splitRules(rules)
	return r, nil
}

// List returns all rows of a calendar ordered by start time.
func (s *Store) List(ctx context.Context, calendarID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT calendar_id, remote_event_id, name, description, location,
		       start_time, end_time, html_link, recurrence, updated_at
		FROM mirrored_events
		WHERE calendar_id = ?
		ORDER BY start_time, remote_event_id
	`, calendarID)
	if err != nil {
		return nil, fmt.Errorf("querying mirrored events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r     Record
			rules string
		)
		if err := rows.Scan(
			&r.CalendarID, &r.RemoteEventID, &r.Name, &r.Description, &r.Location,
			&r.StartTime, &r.EndTime, &r.Link, &rules, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning mirrored event: %w", err)
		}
		r.Recurrence = splitRules(rules)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear removes every row of a calendar and returns how many were removed.
func (s *Store) Clear(ctx context.Context, calendarID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mirrored_events WHERE calendar_id = ?", calendarID)
	if err != nil {
		return 0, fmt.Errorf("clearing mirrored events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared events: %w", err)
	}
	return n, nil
}

// Recurrence lines never contain a newline, so they are stored newline-joined.
func joinRules(rules []string) string {
	return strings.Join(rules, "\n")
}

func splitRules(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
