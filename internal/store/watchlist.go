package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

type WatchlistStore struct {
	db *sql.DB
}

func NewWatchlistStore(db *sql.DB) *WatchlistStore {
	return &WatchlistStore{db: db}
}

func scanWatchlistItem(scanner interface{ Scan(...any) error }) (*model.WatchlistItem, error) {
	var w model.WatchlistItem
	var active int
	var last, prev sql.NullFloat64

	err := scanner.Scan(&w.ID, &w.UserID, &w.ItemIntentID, &active, &last, &prev, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.IsActive = active != 0
	if last.Valid {
		w.LastPrice = &last.Float64
	}
	if prev.Valid {
		w.PreviousPrice = &prev.Float64
	}
	return &w, nil
}

const watchlistCols = `id, user_id, item_intent_id, is_active, last_price, previous_price, created_at, updated_at`

func (s *WatchlistStore) GetByUserItem(userID, itemIntentID string) (*model.WatchlistItem, error) {
	row := s.db.QueryRow(
		`SELECT `+watchlistCols+` FROM watchlist_items WHERE user_id = ? AND item_intent_id = ?`,
		userID, itemIntentID,
	)
	w, err := scanWatchlistItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist item: %w", err)
	}
	return w, nil
}

func (s *WatchlistStore) GetByID(id string) (*model.WatchlistItem, error) {
	row := s.db.QueryRow(`SELECT `+watchlistCols+` FROM watchlist_items WHERE id = ?`, id)
	w, err := scanWatchlistItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist item: %w", err)
	}
	return w, nil
}

func (s *WatchlistStore) Create(userID, itemIntentID string) (*model.WatchlistItem, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO watchlist_items (id, user_id, item_intent_id, is_active) VALUES (?, ?, ?, 1)`,
		id, userID, itemIntentID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert watchlist item: %w", err)
	}
	return s.GetByID(id)
}

// ToggleActive flips the active flag and returns the updated row.
func (s *WatchlistStore) ToggleActive(id string) (*model.WatchlistItem, error) {
	_, err := s.db.Exec(
		`UPDATE watchlist_items SET is_active = 1 - is_active, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle watchlist item: %w", err)
	}
	return s.GetByID(id)
}

// ListActiveByItemIDs returns the user's active watchlist rows for the given
// item intent ids.
func (s *WatchlistStore) ListActiveByItemIDs(userID string, itemIDs []string) ([]model.WatchlistItem, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(itemIDs)-1) + "?"
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, userID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	rows, err := s.db.Query(
		`SELECT `+watchlistCols+` FROM watchlist_items WHERE user_id = ? AND is_active = 1 AND item_intent_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list watchlist items: %w", err)
	}
	defer rows.Close()

	var items []model.WatchlistItem
	for rows.Next() {
		w, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// RecordPrice writes a new observed price, shifting the old last price into
// previous_price when one exists.
func (s *WatchlistStore) RecordPrice(id string, price float64) error {
	_, err := s.db.Exec(
		`UPDATE watchlist_items
		 SET previous_price = CASE WHEN last_price IS NOT NULL THEN last_price ELSE previous_price END,
		     last_price = ?, updated_at = ?
		 WHERE id = ?`,
		price, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record price: %w", err)
	}
	return nil
}

const watchedItemQuery = `
	SELECT w.item_intent_id, i.raw_text, i.canonical_category, w.last_price, w.previous_price
	FROM watchlist_items w
	JOIN item_intents i ON i.id = w.item_intent_id
	WHERE w.user_id = ? AND w.is_active = 1`

func (s *WatchlistStore) listWatched(query string, userID string) ([]model.WatchedItem, error) {
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list watched items: %w", err)
	}
	defer rows.Close()

	var items []model.WatchedItem
	for rows.Next() {
		var w model.WatchedItem
		var category sql.NullString
		var last, prev sql.NullFloat64

		if err := rows.Scan(&w.ItemID, &w.RawText, &category, &last, &prev); err != nil {
			return nil, fmt.Errorf("scan watched item: %w", err)
		}
		w.CanonicalCategory = category.String
		if last.Valid {
			w.LastPrice = &last.Float64
		}
		if prev.Valid {
			w.PreviousPrice = &prev.Float64
		}
		if w.LastPrice != nil && w.PreviousPrice != nil {
			drop := *w.PreviousPrice - *w.LastPrice
			w.PriceDrop = &drop
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// ListWatched returns all active watched items with price history.
func (s *WatchlistStore) ListWatched(userID string) ([]model.WatchedItem, error) {
	return s.listWatched(watchedItemQuery, userID)
}

// ListDrops returns only watched items whose price went down since the
// previous observation.
func (s *WatchlistStore) ListDrops(userID string) ([]model.WatchedItem, error) {
	query := watchedItemQuery + `
	AND w.last_price IS NOT NULL AND w.previous_price IS NOT NULL AND w.last_price < w.previous_price`
	return s.listWatched(query, userID)
}
