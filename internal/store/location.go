package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

// LocationStore persists store brands and their geocodable locations.
type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func scanStore(scanner interface{ Scan(...any) error }) (*model.Store, error) {
	var st model.Store
	err := scanner.Scan(&st.ID, &st.Name, &st.Type, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

const storeCols = `id, name, type, created_at`

func (s *LocationStore) GetStoreByName(name string) (*model.Store, error) {
	row := s.db.QueryRow(`SELECT `+storeCols+` FROM stores WHERE name = ?`, name)
	st, err := scanStore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return st, nil
}

func (s *LocationStore) CreateStore(name, storeType string) (*model.Store, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO stores (id, name, type) VALUES (?, ?, ?)`, id, name, storeType)
	if err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+storeCols+` FROM stores WHERE id = ?`, id)
	st, err := scanStore(row)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return st, nil
}

func scanLocation(scanner interface{ Scan(...any) error }) (*model.StoreLocation, error) {
	var l model.StoreLocation
	var lat, lng sql.NullFloat64

	err := scanner.Scan(&l.ID, &l.StoreID, &l.DisplayName, &l.Address, &lat, &lng, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		l.Latitude = &lat.Float64
	}
	if lng.Valid {
		l.Longitude = &lng.Float64
	}
	return &l, nil
}

const locationCols = `id, store_id, display_name, address, latitude, longitude, created_at, updated_at`

func (s *LocationStore) GetLocation(storeID, displayName string) (*model.StoreLocation, error) {
	row := s.db.QueryRow(
		`SELECT `+locationCols+` FROM store_locations WHERE store_id = ? AND display_name = ?`,
		storeID, displayName,
	)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) GetLocationByID(id string) (*model.StoreLocation, error) {
	row := s.db.QueryRow(`SELECT `+locationCols+` FROM store_locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) CreateLocation(storeID, displayName string) (*model.StoreLocation, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO store_locations (id, store_id, display_name) VALUES (?, ?, ?)`,
		id, storeID, displayName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert store location: %w", err)
	}
	return s.GetLocationByID(id)
}

// SetCoordinates records a geocoding result on the location.
func (s *LocationStore) SetCoordinates(id, address string, lat, lng float64) (*model.StoreLocation, error) {
	_, err := s.db.Exec(
		`UPDATE store_locations SET address = ?, latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
		address, lat, lng, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set coordinates: %w", err)
	}
	return s.GetLocationByID(id)
}
