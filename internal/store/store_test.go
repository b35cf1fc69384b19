package store

import (
	"database/sql"
	"testing"

	"meritboard/internal/database"
	"meritboard/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createLeader inserts a root leader for tests that need a creator.
func createLeader(t *testing.T, us *UserStore) *model.User {
	t.Helper()
	u, err := us.Create("leader", "hash", model.RoleLeader, nil)
	if err != nil {
		t.Fatalf("create leader: %v", err)
	}
	return u
}
