package service

import (
	"path/filepath"
	"testing"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "blog.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func mustCreateUser(t *testing.T, users *UserService, email string, role model.Role) *model.User {
	t.Helper()
	user, err := users.CreateUser(email, "Tester", "correct horse")
	require.NoError(t, err)
	if role == model.RoleAdmin {
		require.NoError(t, users.SetRole(email, role))
		user.Role = role
	}
	return user
}
