package store

import (
	"testing"

	"github.com/kartquake/kartquake/internal/database"
)

func setupMembershipTestDB(t *testing.T) (*MembershipStore, *LocationStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("", "Member", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewMembershipStore(db), NewLocationStore(db), user.ID
}

func createLocation(t *testing.T, ls *LocationStore, brand, displayName string) string {
	t.Helper()
	st, err := ls.CreateStore(brand, "")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	loc, err := ls.CreateLocation(st.ID, displayName)
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc.ID
}

func TestMembershipCreateAndList(t *testing.T) {
	ms, ls, uid := setupMembershipTestDB(t)
	locID := createLocation(t, ls, "WarehouseClub", "WarehouseClub Downtown")

	m, err := ms.Create(uid, locID, "gold", "ext-123")
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}
	if !m.IsActive {
		t.Error("new memberships start active")
	}

	infos, err := ms.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("memberships = %d, want 1", len(infos))
	}
	if infos[0].StoreName != "WarehouseClub" {
		t.Errorf("store name = %q", infos[0].StoreName)
	}
	if infos[0].LocationDisplayName != "WarehouseClub Downtown" {
		t.Errorf("location = %q", infos[0].LocationDisplayName)
	}
	if infos[0].MembershipType != "gold" || infos[0].ExternalMembershipID != "ext-123" {
		t.Errorf("info = %+v", infos[0])
	}
}

func TestMemberBrands(t *testing.T) {
	ms, ls, uid := setupMembershipTestDB(t)

	clubLoc := createLocation(t, ls, "WarehouseClub", "WarehouseClub Downtown")
	fmLoc := createLocation(t, ls, "Fred Meyer (demo)", "Fred Meyer Hawthorne")

	if _, err := ms.Create(uid, clubLoc, "", ""); err != nil {
		t.Fatalf("create club membership: %v", err)
	}
	if _, err := ms.Create(uid, fmLoc, "loyalty", ""); err != nil {
		t.Fatalf("create loyalty membership: %v", err)
	}

	brands, err := ms.MemberBrands(uid)
	if err != nil {
		t.Fatalf("member brands: %v", err)
	}
	if !brands["WarehouseClub"] || !brands["Fred Meyer (demo)"] {
		t.Errorf("brands = %v", brands)
	}
	if len(brands) != 2 {
		t.Errorf("brands = %v, want 2 entries", brands)
	}
}

func TestMemberBrandsEmpty(t *testing.T) {
	ms, _, uid := setupMembershipTestDB(t)

	brands, err := ms.MemberBrands(uid)
	if err != nil {
		t.Fatalf("member brands: %v", err)
	}
	if len(brands) != 0 {
		t.Errorf("brands = %v, want empty", brands)
	}
}
