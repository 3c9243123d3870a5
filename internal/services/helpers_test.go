package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskmanager/internal/database"
	"github.com/yukikurage/taskmanager/internal/dto"
	"github.com/yukikurage/taskmanager/internal/logging"
	"github.com/yukikurage/taskmanager/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns a migrated in-memory database closed at the end of the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, logging.Discard()))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func addRequest(t *testing.T, title string, importance int, deadline string) *dto.AddTaskRequest {
	t.Helper()

	req, err := dto.NewAddTaskRequest(dto.AddTaskPayload{
		TaskFieldsPayload: dto.TaskFieldsPayload{
			Title:      &title,
			Importance: &importance,
			Deadline:   &deadline,
		},
	})
	require.NoError(t, err)
	return req
}

func ptr[T any](v T) *T { return &v }
