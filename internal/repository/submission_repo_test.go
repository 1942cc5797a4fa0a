package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/database"
	"github.com/fyerfyer/motorsport-site/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	// 使用唯一的内存数据库标识符
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	require.NoError(t, database.AutoMigrate(db), "Failed to run migrations")

	// 替换全局DB为测试DB
	originalDB := database.DB
	database.DB = db

	cleanup := func() {
		database.DB = originalDB
	}
	return db, cleanup
}

func newSubmission(id, email string) *models.ContactSubmission {
	return &models.ContactSubmission{
		ID:        id,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Phone:     "555-0100",
		Details:   "Interested in sponsoring the 2026 season.",
		Metadata:  datatypes.JSON(`{"user_agent":"test"}`),
	}
}

func TestSubmissionRepository_Create(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSubmissionRepository()

	sub := newSubmission("sub-1", "jane@example.com")
	require.NoError(t, repo.Create(sub))

	got, err := repo.GetByID("sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, models.SubmissionQueued, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.JSONEq(t, `{"user_agent":"test"}`, string(got.Metadata))

	assert.Error(t, repo.Create(newSubmission("", "x@example.com")))
}

func TestSubmissionRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSubmissionRepositoryWithDB(db)
	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrSubmissionNotFound)
}

func TestSubmissionRepository_UpdateStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSubmissionRepositoryWithDB(db)
	require.NoError(t, repo.Create(newSubmission("sub-1", "jane@example.com")))

	require.NoError(t, repo.UpdateStatus("sub-1", models.SubmissionFailed, "", "rate limited"))
	got, err := repo.GetByID("sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionFailed, got.Status)
	assert.Equal(t, "rate limited", got.Error)
	assert.Nil(t, got.SentAt)

	// 重试成功后清除错误
	require.NoError(t, repo.UpdateStatus("sub-1", models.SubmissionSent, "msg-1", ""))
	got, err = repo.GetByID("sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSent, got.Status)
	assert.Equal(t, "msg-1", got.MessageID)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.SentAt)

	assert.ErrorIs(t, repo.UpdateStatus("sub-1", "bogus", "", ""), models.ErrInvalidSubmissionStatus)
	assert.ErrorIs(t, repo.UpdateStatus("missing", models.SubmissionSent, "", ""), models.ErrSubmissionNotFound)
}

func TestSubmissionRepository_SetTaskID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSubmissionRepositoryWithDB(db)
	require.NoError(t, repo.Create(newSubmission("sub-1", "jane@example.com")))
	require.NoError(t, repo.SetTaskID("sub-1", "task-9"))

	got, err := repo.GetByID("sub-1")
	require.NoError(t, err)
	assert.Equal(t, "task-9", got.TaskID)
}

func TestSubmissionRepository_List(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSubmissionRepositoryWithDB(db)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sub := newSubmission(fmt.Sprintf("sub-%d", i), fmt.Sprintf("u%d@example.com", i%2))
		sub.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(sub))
	}
	require.NoError(t, repo.UpdateStatus("sub-3", models.SubmissionFailed, "", "boom"))

	all, total, err := repo.List(0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 5)
	assert.Equal(t, "sub-4", all[0].ID, "newest first")

	page, total, err := repo.List(1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "sub-3", page[0].ID)

	failed, total, err := repo.List(0, 10, map[string]interface{}{"status": models.SubmissionFailed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "sub-3", failed[0].ID)

	byEmail, total, err := repo.List(0, 10, map[string]interface{}{"email": "u1@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byEmail, 2)

	recent, total, err := repo.List(0, 10, map[string]interface{}{"start_time": base.Add(3 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, recent, 2)
}
