// Package storagetest builds throwaway stores for tests: an in-memory SQLite
// database behind gorm and a miniredis instance for presence.
package storagetest

import (
	"chatcore/backend/internal/models"
	"chatcore/backend/internal/storage"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore returns a migrated store isolated to the calling test.
func NewStore(t testing.TB) *storage.Service {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := storage.NewStorageService(db, rdb)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// SeedUsers inserts one user per name (role user) and returns them in order.
func SeedUsers(t testing.TB, s *storage.Service, names ...string) []models.User {
	t.Helper()

	users := make([]models.User, 0, len(names))
	for _, name := range names {
		u := models.User{Name: name, Role: models.RoleUser}
		require.NoError(t, s.SaveUser(context.Background(), &u))
		users = append(users, u)
	}
	return users
}
