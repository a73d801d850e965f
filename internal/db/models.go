package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationLike         = "like"
	NotificationMatch        = "match"
	NotificationChatRequest  = "chat_request"
	NotificationChatAccepted = "chat_accepted"
)

// Chat request statuses.
const (
	ChatPending  = "pending"
	ChatAccepted = "accepted"
	ChatRejected = "rejected"
)

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// User is created as an email-only row on the first signup or login attempt
// and becomes a complete profile once Name is set.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:100"`
	Age          int
	Pronouns     string `gorm:"size:32"`
	Department   string `gorm:"size:100"`
	Year         string `gorm:"size:32"`
	LookingFor   string `gorm:"size:32"`
	Bio          string `gorm:"type:text"`
	ProfilePhoto string `gorm:"type:text"`
	IsVerified   bool   `gorm:"not null;default:false"`
	OTPHash      string `gorm:"size:100"`
	OTPExpiresAt *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error { newID(&u.ID); return nil }

// Complete reports whether the user finished profile creation.
func (u *User) Complete() bool { return u.Name != "" }

// DisplayName falls back to "Someone" for users without a profile yet.
func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return "Someone"
	}
	return u.Name
}

type UserPrompt struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Question  string    `gorm:"size:255;not null"`
	Answer    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (p *UserPrompt) BeforeCreate(*gorm.DB) error { newID(&p.ID); return nil }

// Like is one direction of interest. One row per ordered pair.
type Like struct {
	ID        string    `gorm:"primaryKey;size:36"`
	LikerID   string    `gorm:"size:36;not null;uniqueIndex:idx_likes_pair,priority:1"`
	LikedID   string    `gorm:"size:36;not null;uniqueIndex:idx_likes_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (l *Like) BeforeCreate(*gorm.DB) error { newID(&l.ID); return nil }

// Match is an unordered pair stored canonically: User1ID < User2ID.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36"`
	User1ID   string    `gorm:"size:36;not null;uniqueIndex:idx_matches_pair,priority:1"`
	User2ID   string    `gorm:"size:36;not null;uniqueIndex:idx_matches_pair,priority:2;index"`
	MatchedAt time.Time `gorm:"not null;index"`
}

func (m *Match) BeforeCreate(*gorm.DB) error { newID(&m.ID); return nil }

// Other returns the member of the match that is not userID.
func (m *Match) Other(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

type ChatRequest struct {
	ID          string    `gorm:"primaryKey;size:36"`
	RequesterID string    `gorm:"size:36;not null;uniqueIndex:idx_chat_requests_pair,priority:1"`
	ReceiverID  string    `gorm:"size:36;not null;uniqueIndex:idx_chat_requests_pair,priority:2;index:idx_chat_requests_inbox,priority:1"`
	Status      string    `gorm:"size:16;not null;default:pending;index:idx_chat_requests_inbox,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (c *ChatRequest) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

type Notification struct {
	ID         string    `gorm:"primaryKey;size:36"`
	UserID     string    `gorm:"size:36;not null;index:idx_notifications_feed,priority:1"`
	FromUserID string    `gorm:"size:36;not null;index"`
	Type       string    `gorm:"size:32;not null"`
	Message    string    `gorm:"size:255;not null"`
	IsRead     bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_notifications_feed,priority:2,sort:desc"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error { newID(&n.ID); return nil }

type Message struct {
	ID         string    `gorm:"primaryKey;size:36"`
	SenderID   string    `gorm:"size:36;not null;index:idx_messages_pair,priority:1"`
	ReceiverID string    `gorm:"size:36;not null;index:idx_messages_pair,priority:2"`
	Content    string    `gorm:"type:text;not null"`
	SentAt     time.Time `gorm:"precision:6;not null;index:idx_messages_pair,priority:3"`
	IsRead     bool      `gorm:"not null;default:false"`
}

func (m *Message) BeforeCreate(*gorm.DB) error { newID(&m.ID); return nil }

// Confession is an anonymous post. UserID is kept for moderation and never
// returned to clients.
type Confession struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	Category  string    `gorm:"size:32;not null;index"`
	Likes     int       `gorm:"not null;default:0"`
	Views     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"precision:6;autoCreateTime;index"`
}

func (c *Confession) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

type ConfessionComment struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ConfessionID string    `gorm:"size:36;not null;index"`
	ParentID     *string   `gorm:"size:36;index"`
	UserID       string    `gorm:"size:36;not null"`
	Content      string    `gorm:"type:text;not null"`
	Likes        int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (c *ConfessionComment) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

type ConfessionLike struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ConfessionID string    `gorm:"size:36;not null;uniqueIndex:idx_confession_likes_pair,priority:1"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:idx_confession_likes_pair,priority:2"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (c *ConfessionLike) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

type CommentLike struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CommentID string    `gorm:"size:36;not null;uniqueIndex:idx_comment_likes_pair,priority:1"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_comment_likes_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (c *CommentLike) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{}, &UserPrompt{},
		&Like{}, &Match{}, &ChatRequest{},
		&Notification{}, &Message{},
		&Confession{}, &ConfessionComment{}, &ConfessionLike{}, &CommentLike{},
	}
}
