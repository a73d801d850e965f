package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfilePrompts are the fixed questions every profile answers.
var ProfilePrompts = []string{
	"What makes you laugh?",
	"My ideal study buddy is...",
	"Best campus spot?",
}

// SampleUsers are the demo profiles used in development.
var SampleUsers = []User{
	{Email: "alice@example.com", Name: "Alice Johnson", Age: 20, Pronouns: "she/her", Department: "Computer Science", Year: "Student", LookingFor: "dating", Bio: "Love coding and coffee! Looking for someone to explore with.", IsVerified: true},
	{Email: "bob@example.com", Name: "Bob Smith", Age: 22, Pronouns: "he/him", Department: "Engineering", Year: "Student", LookingFor: "relationship", Bio: "Ready for something real. Into hiking and board games.", IsVerified: true},
	{Email: "carol@example.com", Name: "Carol Davis", Age: 19, Pronouns: "she/her", Department: "Psychology", Year: "Student", LookingFor: "friendship", Bio: "Would love to meet people and maybe find something special.", IsVerified: true},
	{Email: "david@example.com", Name: "David Wilson", Age: 21, Pronouns: "he/him", Department: "Business", Year: "Student", LookingFor: "dating", Bio: "Entrepreneur at heart. Love trying new restaurants and weekend adventures.", IsVerified: true},
	{Email: "emma@example.com", Name: "Emma Brown", Age: 20, Pronouns: "she/her", Department: "Biology", Year: "Student", LookingFor: "relationship", Bio: "Pre-med student who needs someone to remind her to have fun!", IsVerified: true},
}

// SeedSampleData resets the database and inserts the demo profiles.
//
// Behavior:
//  1. Clears every table (children first).
//  2. Creates the five sample users with their three prompt answers.
//  3. Adds a one-way like (carol → bob), a match (alice ↔ bob) and two confessions.
//
// Works on MySQL, Postgres and SQLite.
func SeedSampleData(database *gorm.DB) error {
	return database.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"comment_likes", "confession_likes", "confession_comments", "confessions",
			"messages", "notifications", "chat_requests", "matches", "likes",
			"user_prompts", "users",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		byEmail := make(map[string]string, len(SampleUsers))
		for _, u := range SampleUsers {
			user := u
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "bio", "updated_at"}),
			}).Create(&user).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
			}
			byEmail[u.Email] = user.ID

			first := strings.Fields(user.Name)[0]
			answers := []string{
				first + " has a great sense of humor!",
				"Someone who brings snacks and good vibes",
				"The library rooftop at sunset",
			}
			for i, q := range ProfilePrompts {
				if err := tx.Create(&UserPrompt{UserID: user.ID, Question: q, Answer: answers[i]}).Error; err != nil {
					return fmt.Errorf("failed to seed prompt: %w", err)
				}
			}
		}

		alice, bob, carol := byEmail["alice@example.com"], byEmail["bob@example.com"], byEmail["carol@example.com"]
		now := time.Now().UTC()

		if err := tx.Create(&Like{LikerID: carol, LikedID: bob}).Error; err != nil {
			return fmt.Errorf("failed to seed like: %w", err)
		}
		if err := tx.Create(&Notification{
			UserID: bob, FromUserID: carol, Type: NotificationLike,
			Message: "Carol Davis liked your profile! 💖",
		}).Error; err != nil {
			return fmt.Errorf("failed to seed notification: %w", err)
		}

		u1, u2 := alice, bob
		if u2 < u1 {
			u1, u2 = u2, u1
		}
		if err := tx.Create(&[]Like{{LikerID: alice, LikedID: bob}, {LikerID: bob, LikedID: alice}}).Error; err != nil {
			return fmt.Errorf("failed to seed mutual likes: %w", err)
		}
		if err := tx.Create(&Match{User1ID: u1, User2ID: u2, MatchedAt: now}).Error; err != nil {
			return fmt.Errorf("failed to seed match: %w", err)
		}

		confessions := []Confession{
			{UserID: carol, Category: "crush", Content: "To the person who always sits by the window in the library: hi."},
			{UserID: alice, Category: "campus", Content: "The vending machine on the third floor finally takes cards."},
		}
		if err := tx.Create(&confessions).Error; err != nil {
			return fmt.Errorf("failed to seed confessions: %w", err)
		}
		return nil
	})
}
