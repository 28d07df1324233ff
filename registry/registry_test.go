package registry_test

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/database"
	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/registry"
)

// newTestStore opens an isolated in-memory database and migrates the schema.
func newTestStore(t *testing.T) *registry.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(context.Background(), sqlite.Open(dsn), database.Config{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
	}, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := registry.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func newTestDirectory(t *testing.T) (*registry.Directory, *registry.Store) {
	t.Helper()
	store := newTestStore(t)
	hasher := auth.NewBcryptHasher(auth.WithCost(4))
	return registry.NewDirectory(store, hasher, logger.NewDefault("test")), store
}

var adminCaller = auth.Identity{Username: "admin", Access: auth.AccessAdmin}
