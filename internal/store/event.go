package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// GestureEvent is one fired gesture as recorded in the history.
type GestureEvent struct {
	ID        string       `json:"id"`
	Gesture   gesture.Kind `json:"gesture"`
	Command   Command      `json:"command"`
	Page      int          `json:"page"`
	FiredAtMs int64        `json:"fired_at_ms"`
	CreatedAt time.Time    `json:"created_at"`
}

// EventRepository stores the gesture history.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends an event. ID and CreatedAt are filled in when empty.
func (r *EventRepository) Record(e *GestureEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, gesture, command, page, fired_at_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Gesture.String(), string(e.Command), e.Page, e.FiredAtMs, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]GestureEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, command, page, fired_at_ms, created_at
		 FROM gesture_events
		 ORDER BY rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GestureEvent
	for rows.Next() {
		var e GestureEvent
		var kind, command string
		if err := rows.Scan(&e.ID, &kind, &command, &e.Page, &e.FiredAtMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Gesture, err = gesture.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		e.Command = Command(command)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByGesture returns how many times each gesture has fired.
func (r *EventRepository) CountByGesture() (map[gesture.Kind]int, error) {
	rows, err := r.db.Query(`SELECT gesture, COUNT(*) FROM gesture_events GROUP BY gesture`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[gesture.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		k, err := gesture.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		counts[k] = n
	}

	return counts, rows.Err()
}

// Prune deletes all but the newest keep events.
func (r *EventRepository) Prune(keep int) error {
	_, err := r.db.Exec(
		`DELETE FROM gesture_events WHERE rowid NOT IN (
			SELECT rowid FROM gesture_events ORDER BY rowid DESC LIMIT ?
		)`,
		max(keep, 0),
	)
	return err
}
