package store

import (
	"testing"

	"github.com/kartquake/kartquake/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("", "Subscriber", "", "anonymous", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewPushStore(db), user.ID
}

func TestCreateSubscription(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub, err := ps.CreateSubscription(uid, "https://push.example.com/sub1", "p256dh1", "auth1")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == "" {
		t.Error("expected a generated id")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q", sub.Endpoint)
	}
}

func TestCreateSubscriptionUpsertsOnEndpoint(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	sub1, err := ps.CreateSubscription(uid, "https://push.example.com/sub1", "key1", "auth1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sub2, err := ps.CreateSubscription(uid, "https://push.example.com/sub1", "key2", "auth2")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if sub2.ID != sub1.ID {
		t.Errorf("expected same row on upsert, got %s != %s", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" || sub2.AuthKey != "auth2" {
		t.Errorf("keys not refreshed: %+v", sub2)
	}

	subs, err := ps.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(subs))
	}
}

func TestListByUser(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	if _, err := ps.CreateSubscription(uid, "https://push.example.com/1", "k1", "a1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ps.CreateSubscription(uid, "https://push.example.com/2", "k2", "a2"); err != nil {
		t.Fatalf("create: %v", err)
	}

	subs, err := ps.ListByUser(uid)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps, uid := setupPushTestDB(t)

	if _, err := ps.CreateSubscription(uid, "https://push.example.com/expired", "k1", "a1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ps.DeleteByEndpoint("https://push.example.com/expired"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, err := ps.ListByUser(uid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected 0 subs, got %d", len(subs))
	}
}

func TestGetByEndpointNotFound(t *testing.T) {
	ps, _ := setupPushTestDB(t)

	sub, err := ps.GetByEndpoint("https://push.example.com/none")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub != nil {
		t.Errorf("sub = %+v, want nil", sub)
	}
}
