package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kartquake/kartquake/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var email, passwordHash sql.NullString
	var costcoMembership, costcoAddon int

	err := scanner.Scan(
		&u.ID, &email, &u.Name, &u.ZipCode, &u.AuthProvider, &passwordHash,
		&u.Plan, &costcoMembership, &costcoAddon,
		&u.FreeItemsLimit, &u.FreePlanRunsLimit, &u.FreePlanRunsUsed,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.PasswordHash = passwordHash.String
	u.HasCostcoMembership = costcoMembership != 0
	u.HasCostcoAddon = costcoAddon != 0
	return &u, nil
}

const userCols = `id, email, name, zip_code, auth_provider, password_hash, plan, has_costco_membership, has_costco_addon, free_items_limit, free_plan_runs_limit, free_plan_runs_used, created_at, updated_at`

func (s *UserStore) Create(email, name, zipCode, authProvider, passwordHash string) (*model.User, error) {
	id := uuid.NewString()

	var e, ph any
	if email != "" {
		e = email
	}
	if passwordHash != "" {
		ph = passwordHash
	}
	if authProvider == "" {
		authProvider = "anonymous"
	}

	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, zip_code, auth_provider, password_hash, free_items_limit, free_plan_runs_limit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e, name, zipCode, authProvider, ph,
		model.DefaultFreeItemsLimit, model.DefaultFreePlanRunsLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile overwrites the mutable profile fields. Callers merge partial
// updates against the current row before calling.
func (s *UserStore) UpdateProfile(id, name, zipCode string, hasCostcoMembership, hasCostcoAddon bool) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, zip_code = ?, has_costco_membership = ?, has_costco_addon = ?, updated_at = ? WHERE id = ?`,
		name, zipCode, boolToInt(hasCostcoMembership), boolToInt(hasCostcoAddon), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// SetCredentials attaches an email and password hash to a user, flipping the
// auth provider to "password". Used when a guest account registers.
func (s *UserStore) SetCredentials(id, email, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET email = ?, password_hash = ?, auth_provider = 'password', updated_at = ? WHERE id = ?`,
		email, passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set credentials: %w", err)
	}
	return nil
}

// SetPremium upgrades the user's plan and lifts the free-tier limits.
func (s *UserStore) SetPremium(id string, itemsLimit, planRunsLimit int) error {
	_, err := s.db.Exec(
		`UPDATE users SET plan = ?, free_items_limit = ?, free_plan_runs_limit = ?, updated_at = ? WHERE id = ?`,
		model.PlanPremium, itemsLimit, planRunsLimit, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return nil
}

// SetCostcoAddon flips the paid club-store add-on flag.
func (s *UserStore) SetCostcoAddon(id string, enabled bool) error {
	_, err := s.db.Exec(
		`UPDATE users SET has_costco_addon = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set costco addon: %w", err)
	}
	return nil
}

// IncrementPlanRuns bumps the plan-run usage counter in a single statement
// so concurrent requests cannot lose an increment.
func (s *UserStore) IncrementPlanRuns(id string) error {
	_, err := s.db.Exec(
		`UPDATE users SET free_plan_runs_used = free_plan_runs_used + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("increment plan runs: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
