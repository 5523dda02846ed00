package service

import (
	"fmt"
	"strings"
	"testing"

	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database and migrates the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.FriendEdge{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
		&models.MonitoredPlant{},
		&models.Post{},
		&models.PostLike{},
		&models.Story{},
	))
	return db
}

type testServices struct {
	db            *gorm.DB
	hub           *hub.Hub
	users         *UserService
	notifications *NotificationService
	chat          *ChatService
	friends       *FriendshipService
	posts         *PostService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()

	db := newTestDB(t)
	h := hub.NewHub()
	notifications := NewNotificationService(db, h)
	chat := NewChatService(db, h)
	return testServices{
		db:            db,
		hub:           h,
		users:         NewUserService(db),
		notifications: notifications,
		chat:          chat,
		friends:       NewFriendshipService(db, notifications, chat),
		posts:         NewPostService(db),
	}
}

func createUser(t *testing.T, db *gorm.DB, uid, displayName string) models.User {
	t.Helper()

	user := models.User{
		UID:         uid,
		DisplayName: displayName,
		Email:       uid + "@example.com",
	}
	user.Normalize()
	require.NoError(t, db.Create(&user).Error)
	return user
}
