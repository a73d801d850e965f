// Package view holds the client-facing shapes returned by the services.
package view

import (
	"time"

	"github.com/oggyb/fall-in/internal/db"
)

type Prompt struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Profile is what other students see of a user. Email and OTP state never leave the server.
type Profile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Age        int      `json:"age,omitempty"`
	Pronouns   string   `json:"pronouns,omitempty"`
	Department string   `json:"department,omitempty"`
	Year       string   `json:"year,omitempty"`
	LookingFor string   `json:"looking_for,omitempty"`
	Bio        string   `json:"bio,omitempty"`
	Photo      string   `json:"profile_photo,omitempty"`
	Prompts    []Prompt `json:"prompts,omitempty"`
}

func NewProfile(u *db.User, prompts []db.UserPrompt) *Profile {
	if u == nil {
		return nil
	}
	p := &Profile{
		ID:         u.ID,
		Name:       u.DisplayName(),
		Age:        u.Age,
		Pronouns:   u.Pronouns,
		Department: u.Department,
		Year:       u.Year,
		LookingFor: u.LookingFor,
		Bio:        u.Bio,
		Photo:      u.ProfilePhoto,
	}
	for _, pr := range prompts {
		p.Prompts = append(p.Prompts, Prompt{Question: pr.Question, Answer: pr.Answer})
	}
	return p
}

// Me is the signed-in user's own view.
type Me struct {
	Profile
	Email    string `json:"email"`
	Verified bool   `json:"is_verified"`
	Complete bool   `json:"profile_complete"`
}

// Relationship summarizes the ledger state between the viewer and a profile.
type Relationship struct {
	Liked      bool `json:"liked"`
	LikedYou   bool `json:"liked_you"`
	Matched    bool `json:"matched"`
	CanMessage bool `json:"can_message"`
}

type UserDetail struct {
	Profile
	Relationship Relationship `json:"relationship"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	From      *Profile  `json:"from_user,omitempty"`
}

func NewNotification(n db.Notification, from *db.User) Notification {
	return Notification{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Read:      n.IsRead,
		CreatedAt: n.CreatedAt,
		From:      NewProfile(from, nil),
	}
}

type ChatRequest struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	ReceiverID  string    `json:"receiver_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Requester   *Profile  `json:"requester,omitempty"`
}

func NewChatRequest(r db.ChatRequest, requester *db.User) ChatRequest {
	return ChatRequest{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		ReceiverID:  r.ReceiverID,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		Requester:   NewProfile(requester, nil),
	}
}

type Match struct {
	UserID    string    `json:"user_id"`
	MatchedAt time.Time `json:"matched_at"`
	User      *Profile  `json:"user,omitempty"`
}

// Overview backs the notifications page.
type Overview struct {
	PendingRequests []ChatRequest  `json:"pending_requests"`
	Notifications   []Notification `json:"notifications"`
	RecentMatches   []Match        `json:"recent_matches"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
	Read       bool      `json:"is_read"`
}

func NewMessage(m db.Message) Message {
	return Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		SentAt:     m.SentAt,
		Read:       m.IsRead,
	}
}

func NewMessages(ms []db.Message) []Message {
	out := make([]Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, NewMessage(m))
	}
	return out
}

type Conversation struct {
	User         *Profile  `json:"user"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int64     `json:"unread_count"`
	IsMatch      bool      `json:"is_match"`
	LastActivity time.Time `json:"last_activity"`
}
