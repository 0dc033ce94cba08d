package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"
)

// newTestDB returns a migrated, per-test in-memory database. A single
// connection serialises access the way a real database serialises writes to
// one row.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, userID string, role string, status *domain.MembershipStatus) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.UpsertProfile(ctx, db, &domain.Profile{UserID: userID, Role: role}))
	if status != nil {
		require.NoError(t, repo.SetMembershipStatus(ctx, db, userID, status))
	}
}

func seedClub(t *testing.T, db *gorm.DB, name string) *domain.Club {
	t.Helper()
	c, err := repo.CreateClub(context.Background(), db, name)
	require.NoError(t, err)
	return c
}
