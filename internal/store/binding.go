package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/scoreturner/internal/gesture"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Command is the page operation a gesture performs.
type Command string

const (
	CommandNext     Command = "next"
	CommandPrevious Command = "previous"
	CommandNone     Command = "none"
)

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	switch c {
	case CommandNext, CommandPrevious, CommandNone:
		return true
	}
	return false
}

// Binding maps a gesture to a page command and, optionally, a plugin action
// run alongside it.
type Binding struct {
	ID         string
	Gesture    gesture.Kind
	Command    Command
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// DefaultBindings returns the stock gesture mapping: left wink and upward
// nod go back, everything else goes forward.
func DefaultBindings() map[gesture.Kind]Command {
	return map[gesture.Kind]Command{
		gesture.WinkLeft:  CommandPrevious,
		gesture.WinkRight: CommandNext,
		gesture.Smile:     CommandNext,
		gesture.NodUp:     CommandPrevious,
		gesture.NodDown:   CommandNext,
	}
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// SeedDefaults inserts the default bindings into an empty table. Once any
// binding exists nothing is added, so deleted bindings stay deleted.
func (r *BindingRepository) SeedDefaults() error {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bindings`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for _, k := range gesture.Priority {
		b := &Binding{
			ID:      uuid.New().String(),
			Gesture: k,
			Command: DefaultBindings()[k],
			Enabled: true,
		}
		if err := r.Create(b); err != nil {
			return fmt.Errorf("seed %s: %w", k, err)
		}
	}
	return nil
}

// Create inserts a new binding into the database.
func (r *BindingRepository) Create(b *Binding) error {
	b.CreatedAt = time.Now()

	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, gesture, command, plugin_name, action_name, config, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Gesture.String(), string(b.Command), b.PluginName, b.ActionName, string(config), b.Enabled, b.CreatedAt,
	)
	return err
}

const bindingColumns = `id, gesture, command, plugin_name, action_name, config, enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var kind, command, config string
	var enabled int

	err := row.Scan(&b.ID, &kind, &command, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.Gesture, err = gesture.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	b.Command = Command(command)
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetByGesture retrieves the binding for a gesture.
// Returns nil, nil if the gesture is unbound.
func (r *BindingRepository) GetByGesture(k gesture.Kind) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE gesture = ?`, k.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings from the database.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding in the database.
func (r *BindingRepository) Update(b *Binding) error {
	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE bindings SET gesture = ?, command = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Gesture.String(), string(b.Command), b.PluginName, b.ActionName, string(config), enabled, b.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding from the database by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
