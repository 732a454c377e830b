package store

import "fmt"

// migrations are applied in order; PRAGMA user_version records how many
// have run. Append only.
var migrations = []string{
	// gesture tuning as key-value pairs
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	// what each gesture does when it fires
	`CREATE TABLE IF NOT EXISTS bindings (
		id TEXT PRIMARY KEY,
		gesture TEXT NOT NULL UNIQUE CHECK(gesture IN ('wink_left', 'wink_right', 'smile', 'nod_down', 'nod_up')),
		command TEXT NOT NULL CHECK(command IN ('next', 'previous', 'none')),
		plugin_name TEXT NOT NULL DEFAULT '',
		action_name TEXT NOT NULL DEFAULT '',
		config TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// history of fired gestures
	`CREATE TABLE IF NOT EXISTS gesture_events (
		id TEXT PRIMARY KEY,
		gesture TEXT NOT NULL,
		command TEXT NOT NULL,
		page INTEGER NOT NULL DEFAULT 0,
		fired_at_ms INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_gesture_events_gesture ON gesture_events(gesture)`,
}

// SchemaVersion returns the number of migrations applied to the database.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies the migrations the database has not seen yet, each in its
// own transaction together with the version bump.
func (s *Store) migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
