package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

type TripStore struct {
	db *sql.DB
}

func NewTripStore(db *sql.DB) *TripStore {
	return &TripStore{db: db}
}

func scanTripSession(scanner interface{ Scan(...any) error }) (*model.TripSession, error) {
	var t model.TripSession
	var raw string
	err := scanner.Scan(&t.ID, &t.UserID, &raw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Constraints = decodeConstraints(raw)
	return &t, nil
}

// decodeConstraints tolerates malformed stored JSON by falling back to the
// default constraint set.
func decodeConstraints(raw string) model.PlanConstraints {
	c := model.DefaultConstraints()
	if raw == "" {
		return c
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return model.DefaultConstraints()
	}
	if c.OptimizeFor == "" {
		c.OptimizeFor = model.OptimizeBalanced
	}
	return c
}

const tripSessionCols = `id, user_id, constraints, created_at, updated_at`

// GetOrCreate returns the user's current trip session, creating one with
// default constraints on first use. One session per user, fetched by recency.
func (s *TripStore) GetOrCreate(userID string) (*model.TripSession, error) {
	row := s.db.QueryRow(
		`SELECT `+tripSessionCols+` FROM trip_sessions WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	t, err := scanTripSession(row)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get trip session: %w", err)
	}

	id := uuid.NewString()
	data, err := json.Marshal(model.DefaultConstraints())
	if err != nil {
		return nil, fmt.Errorf("marshal constraints: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO trip_sessions (id, user_id, constraints) VALUES (?, ?, ?)`,
		id, userID, string(data),
	); err != nil {
		return nil, fmt.Errorf("insert trip session: %w", err)
	}
	return s.GetByID(id)
}

func (s *TripStore) GetByID(id string) (*model.TripSession, error) {
	row := s.db.QueryRow(`SELECT `+tripSessionCols+` FROM trip_sessions WHERE id = ?`, id)
	t, err := scanTripSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trip session: %w", err)
	}
	return t, nil
}

// SaveConstraints persists a merged constraint set in a single write.
func (s *TripStore) SaveConstraints(sessionID string, c model.PlanConstraints) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal constraints: %w", err)
	}
	if _, err := s.db.Exec(
		`UPDATE trip_sessions SET constraints = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), sessionID,
	); err != nil {
		return fmt.Errorf("save constraints: %w", err)
	}
	return nil
}
