package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.StoreMembership, error) {
	var m model.StoreMembership
	var active int

	err := scanner.Scan(&m.ID, &m.UserID, &m.StoreLocationID, &m.MembershipType, &m.ExternalMembershipID, &active, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.IsActive = active != 0
	return &m, nil
}

const membershipCols = `id, user_id, store_location_id, membership_type, external_membership_id, is_active, created_at`

func (s *MembershipStore) Create(userID, storeLocationID, membershipType, externalMembershipID string) (*model.StoreMembership, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO store_memberships (id, user_id, store_location_id, membership_type, external_membership_id, is_active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		id, userID, storeLocationID, membershipType, externalMembershipID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM store_memberships WHERE id = ?`, id)
	m, err := scanMembership(row)
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// MemberBrands returns the distinct store brands the user holds an active
// membership for. The discount engine keys its club-store rule off this set.
func (s *MembershipStore) MemberBrands(userID string) (map[string]bool, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT st.name
		 FROM store_memberships m
		 JOIN store_locations l ON l.id = m.store_location_id
		 JOIN stores st ON st.id = l.store_id
		 WHERE m.user_id = ? AND m.is_active = 1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("member brands: %w", err)
	}
	defer rows.Close()

	brands := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands[name] = true
	}
	return brands, rows.Err()
}

// ListByUser returns the user's memberships joined with store and location
// names.
func (s *MembershipStore) ListByUser(userID string) ([]model.MembershipInfo, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.user_id, st.name, l.display_name, m.membership_type, m.external_membership_id, m.is_active
		 FROM store_memberships m
		 JOIN store_locations l ON l.id = m.store_location_id
		 JOIN stores st ON st.id = l.store_id
		 WHERE m.user_id = ?
		 ORDER BY m.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var infos []model.MembershipInfo
	for rows.Next() {
		var info model.MembershipInfo
		var active int
		if err := rows.Scan(&info.ID, &info.UserID, &info.StoreName, &info.LocationDisplayName,
			&info.MembershipType, &info.ExternalMembershipID, &active); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		info.IsActive = active != 0
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
