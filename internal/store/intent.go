package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

type IntentStore struct {
	db *sql.DB
}

func NewIntentStore(db *sql.DB) *IntentStore {
	return &IntentStore{db: db}
}

func scanIntent(scanner interface{ Scan(...any) error }) (*model.ItemIntent, error) {
	var i model.ItemIntent
	var category sql.NullString
	var attrs string

	err := scanner.Scan(&i.ID, &i.UserID, &i.RawText, &category, &attrs, &i.Quantity, &i.Status, &i.CreatedAt)
	if err != nil {
		return nil, err
	}

	i.CanonicalCategory = category.String
	i.Attributes = map[string]any{}
	if attrs != "" {
		// Tolerate malformed rows rather than failing the whole list.
		_ = json.Unmarshal([]byte(attrs), &i.Attributes)
	}
	return &i, nil
}

const intentCols = `id, user_id, raw_text, canonical_category, attributes, quantity, status, created_at`

func (s *IntentStore) Create(userID, rawText, category string, attributes map[string]any, quantity int) (*model.ItemIntent, error) {
	id := uuid.NewString()
	if quantity < 1 {
		quantity = 1
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	attrs, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	var cat any
	if category != "" {
		cat = category
	}

	_, err = s.db.Exec(
		`INSERT INTO item_intents (id, user_id, raw_text, canonical_category, attributes, quantity) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, rawText, cat, string(attrs), quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item intent: %w", err)
	}
	return s.GetByID(id)
}

func (s *IntentStore) GetByID(id string) (*model.ItemIntent, error) {
	row := s.db.QueryRow(`SELECT `+intentCols+` FROM item_intents WHERE id = ?`, id)
	i, err := scanIntent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item intent: %w", err)
	}
	return i, nil
}

func (s *IntentStore) ListByUser(userID string) ([]model.ItemIntent, error) {
	rows, err := s.db.Query(
		`SELECT `+intentCols+` FROM item_intents WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list item intents: %w", err)
	}
	defer rows.Close()

	var intents []model.ItemIntent
	for rows.Next() {
		i, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item intent: %w", err)
		}
		intents = append(intents, *i)
	}
	return intents, rows.Err()
}

// ListPending returns the user's pending intents oldest first, the order the
// plan generator consumes them in.
func (s *IntentStore) ListPending(userID string) ([]model.ItemIntent, error) {
	rows, err := s.db.Query(
		`SELECT `+intentCols+` FROM item_intents WHERE user_id = ? AND status = ? ORDER BY created_at ASC`,
		userID, model.IntentStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending intents: %w", err)
	}
	defer rows.Close()

	var intents []model.ItemIntent
	for rows.Next() {
		i, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item intent: %w", err)
		}
		intents = append(intents, *i)
	}
	return intents, rows.Err()
}

func (s *IntentStore) CountPending(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM item_intents WHERE user_id = ? AND status = ?`,
		userID, model.IntentStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending intents: %w", err)
	}
	return count, nil
}

// Update overwrites the mutable intent fields. Callers merge partial updates
// against the current row before calling.
func (s *IntentStore) Update(id, category string, attributes map[string]any, quantity int, status string) (*model.ItemIntent, error) {
	if quantity < 1 {
		quantity = 1
	}
	if attributes == nil {
		attributes = map[string]any{}
	}
	attrs, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	var cat any
	if category != "" {
		cat = category
	}

	_, err = s.db.Exec(
		`UPDATE item_intents SET canonical_category = ?, attributes = ?, quantity = ?, status = ? WHERE id = ?`,
		cat, string(attrs), quantity, status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item intent: %w", err)
	}
	return s.GetByID(id)
}
