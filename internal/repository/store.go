package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles every repository over one handle, which is either the root
// connection or a transaction.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Likes         *LikeRepository
	Matches       *MatchRepository
	ChatRequests  *ChatRequestRepository
	Notifications *NotificationRepository
	Messages      *MessageRepository
	Confessions   *ConfessionRepository
}

// NewStore binds all repositories to database.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		db:            database,
		Users:         NewUserRepository(database),
		Likes:         NewLikeRepository(database),
		Matches:       NewMatchRepository(database),
		ChatRequests:  NewChatRequestRepository(database),
		Notifications: NewNotificationRepository(database),
		Messages:      NewMessageRepository(database),
		Confessions:   NewConfessionRepository(database),
	}
}

// Tx runs fn with a Store bound to a single transaction. Any error rolls back.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }
