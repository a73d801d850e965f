package confession

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/repository"
	"github.com/oggyb/fall-in/internal/utils/pagination"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50

	MaxContentLength = 1000
	MaxCommentLength = 500
)

// Categories are the accepted confession categories.
var Categories = []string{"crush", "campus", "academic", "funny", "random"}

func validCategory(c string) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Confession is the public shape of a post. The author is only ever shown by alias.
type Confession struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Likes     int       `json:"likes"`
	Views     int       `json:"views"`
	Comments  int64     `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID           string    `json:"id"`
	ConfessionID string    `json:"confession_id"`
	ParentID     *string   `json:"parent_id,omitempty"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	Likes        int       `json:"likes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is one slice of the feed. NextCursor is nil on the last page.
type Page struct {
	Items      []Confession `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

func newConfession(c db.Confession, comments int64) Confession {
	return Confession{
		ID:        c.ID,
		Author:    Alias(c.ID),
		Content:   c.Content,
		Category:  c.Category,
		Likes:     c.Likes,
		Views:     c.Views,
		Comments:  comments,
		CreatedAt: c.CreatedAt,
	}
}

func newComment(c db.ConfessionComment) Comment {
	return Comment{
		ID:           c.ID,
		ConfessionID: c.ConfessionID,
		ParentID:     c.ParentID,
		Author:       Alias(c.ID),
		Content:      c.Content,
		Likes:        c.Likes,
		CreatedAt:    c.CreatedAt,
	}
}

// Service runs the anonymous confession board.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.ConfessionRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, repo: appCtx.Store.Confessions}
}

func (s *Service) Post(ctx context.Context, author, content, category string) (*Confession, error) {
	content = strings.TrimSpace(content)
	category = strings.ToLower(strings.TrimSpace(category))
	switch {
	case author == "":
		return nil, svcErr.Validation("author is required")
	case content == "":
		return nil, svcErr.Validation("confession cannot be empty")
	case utf8.RuneCountInString(content) > MaxContentLength:
		return nil, svcErr.Validation("confession is too long")
	case !validCategory(category):
		return nil, svcErr.Validation("category must be one of crush, campus, academic, funny, random")
	}

	row := db.Confession{UserID: author, Content: content, Category: category}
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := newConfession(row, 0)
	return &out, nil
}

// Feed lists confessions newest first. category "" means all categories.
func (s *Service) Feed(ctx context.Context, category, cursor string, limit int) (*Page, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !validCategory(category) {
		return nil, svcErr.Validation("unknown category")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var token *string
	if cursor != "" {
		token = &cursor
	}
	rows, next, err := s.repo.Feed(ctx, category, token, limit)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return nil, svcErr.Validation("invalid cursor")
		}
		return nil, svcErr.Upstream(err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	counts, err := s.repo.CommentCounts(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	page := &Page{Items: make([]Confession, 0, len(rows)), NextCursor: next}
	for _, r := range rows {
		page.Items = append(page.Items, newConfession(r, counts[r.ID]))
	}
	return page, nil
}

func (s *Service) find(ctx context.Context, id string) (*db.Confession, error) {
	if id == "" {
		return nil, svcErr.Validation("confession id is required")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("confession not found")
		}
		return nil, svcErr.Upstream(err)
	}
	return c, nil
}

// Get returns one confession and counts the view.
func (s *Service) Get(ctx context.Context, id string) (*Confession, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, svcErr.Upstream(err)
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CommentCounts(ctx, []string{id})
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := newConfession(*c, counts[id])
	return &out, nil
}

// Like counts userID's like once. It returns the current like total.
func (s *Service) Like(ctx context.Context, userID, id string) (int, error) {
	if _, err := s.find(ctx, id); err != nil {
		return 0, err
	}
	if _, err := s.repo.Like(ctx, id, userID); err != nil {
		return 0, svcErr.Upstream(err)
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.Likes, nil
}

// Comment adds a reply to a confession, optionally under another comment of
// the same confession.
func (s *Service) Comment(ctx context.Context, author, confessionID, parentID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	switch {
	case author == "":
		return nil, svcErr.Validation("author is required")
	case content == "":
		return nil, svcErr.Validation("comment cannot be empty")
	case utf8.RuneCountInString(content) > MaxCommentLength:
		return nil, svcErr.Validation("comment is too long")
	}
	if _, err := s.find(ctx, confessionID); err != nil {
		return nil, err
	}

	row := db.ConfessionComment{ConfessionID: confessionID, UserID: author, Content: content}
	if parentID != "" {
		parent, err := s.repo.FindComment(ctx, parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, svcErr.NotFound("parent comment not found")
			}
			return nil, svcErr.Upstream(err)
		}
		if parent.ConfessionID != confessionID {
			return nil, svcErr.Validation("parent comment belongs to another confession")
		}
		row.ParentID = &parent.ID
	}
	if err := s.repo.CreateComment(ctx, &row); err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := newComment(row)
	return &out, nil
}

// Comments lists a confession's comments oldest first.
func (s *Service) Comments(ctx context.Context, confessionID string) ([]Comment, error) {
	if _, err := s.find(ctx, confessionID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Comments(ctx, confessionID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := make([]Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, newComment(r))
	}
	return out, nil
}

// LikeComment counts userID's like of a comment once and returns the total.
func (s *Service) LikeComment(ctx context.Context, userID, commentID string) (int, error) {
	if commentID == "" {
		return 0, svcErr.Validation("comment id is required")
	}
	if _, err := s.repo.FindComment(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, svcErr.NotFound("comment not found")
		}
		return 0, svcErr.Upstream(err)
	}
	if _, err := s.repo.LikeComment(ctx, commentID, userID); err != nil {
		return 0, svcErr.Upstream(err)
	}
	c, err := s.repo.FindComment(ctx, commentID)
	if err != nil {
		return 0, svcErr.Upstream(err)
	}
	return c.Likes, nil
}
