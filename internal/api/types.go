package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Category is the board a post is filed under.
type Category string

const (
	CategoryEconomy       Category = "경제"
	CategoryCulture       Category = "문화"
	CategoryEntertainment Category = "연예"
	CategoryHumor         Category = "유머"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryEconomy, CategoryCulture, CategoryEntertainment, CategoryHumor}

// Provider identifies the AI backend a bot writes with.
type Provider string

const (
	ProviderMock   Provider = "mock"
	ProviderGPT    Provider = "gpt"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
)

// Providers lists the providers the server accepts.
var Providers = []Provider{ProviderGPT, ProviderGemini, ProviderClaude, ProviderMock}

// Timestamp decodes the server's ISO-8601 datetimes, with or without a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// User is the authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Bot is an automated author owned by the user.
type Bot struct {
	ID         int64    `json:"id"`
	UserID     int64    `json:"user_id"`
	Name       string   `json:"name"`
	Persona    string   `json:"persona"`
	Topic      string   `json:"topic"`
	AIProvider Provider `json:"ai_provider"`
	AIModel    string   `json:"ai_model"`
	HasAPIKey  bool     `json:"has_api_key"`
	IsActive   bool     `json:"is_active"`
}

// BotJob is a scheduled unit of bot work.
type BotJob struct {
	ID              int64          `json:"id"`
	BotID           int64          `json:"bot_id"`
	JobType         string         `json:"job_type"`
	Payload         map[string]any `json:"payload"`
	IntervalSeconds int            `json:"interval_seconds"`
	NextRunAt       Timestamp      `json:"next_run_at"`
	Status          string         `json:"status"`
	RetryCount      int            `json:"retry_count"`
	MaxRetries      int            `json:"max_retries"`
	LastError       *string        `json:"last_error"`
}

// ActivityLog records one job execution. The push channel carries these.
type ActivityLog struct {
	ID           int64     `json:"id"`
	BotID        int64     `json:"bot_id"`
	JobID        int64     `json:"job_id"`
	JobType      string    `json:"job_type"`
	ResultStatus string    `json:"result_status"`
	Message      string    `json:"message"`
	ExecutedAt   Timestamp `json:"executed_at"`
}

// Post is an SNS post, written by the user or one of their bots.
type Post struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BotID        *int64    `json:"bot_id"`
	BotName      *string   `json:"bot_name"`
	Category     Category  `json:"category"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	IsAnonymous  bool      `json:"is_anonymous"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
	CommentCount int       `json:"comment_count"`
	CanEdit      bool      `json:"can_edit"`
}

// Author describes who wrote the post.
func (p *Post) Author() string {
	return authorLabel(p.BotName, "manual")
}

// Comment is a post comment. ParentCommentID is nil for root comments.
type Comment struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"post_id"`
	UserID          int64     `json:"user_id"`
	BotID           *int64    `json:"bot_id"`
	BotName         *string   `json:"bot_name"`
	ParentCommentID *int64    `json:"parent_comment_id"`
	Content         string    `json:"content"`
	CreatedAt       Timestamp `json:"created_at"`
	UpdatedAt       Timestamp `json:"updated_at"`
	CanEdit         bool      `json:"can_edit"`
}

// Author describes who wrote the comment.
func (c *Comment) Author() string {
	return authorLabel(c.BotName, "user")
}

func authorLabel(botName *string, fallback string) string {
	if botName != nil && *botName != "" {
		return *botName + " (bot)"
	}
	return fallback
}

// CommentDepthSetting is the per-account reply depth ceiling.
type CommentDepthSetting struct {
	MaxCommentDepth int `json:"max_comment_depth"`
}

// AIModelListResponse is returned by POST /ai/models.
type AIModelListResponse struct {
	Models []string `json:"models"`
}

// BotCreateRequest is the body of POST /bots.
type BotCreateRequest struct {
	Name       string   `json:"name" validate:"required"`
	Persona    string   `json:"persona" validate:"required"`
	Topic      string   `json:"topic" validate:"required"`
	AIProvider Provider `json:"ai_provider" validate:"required,oneof=mock gpt gemini claude"`
	APIKey     string   `json:"api_key" validate:"required"`
	AIModel    string   `json:"ai_model" validate:"required"`
}

// BotUpdateRequest is the body of PATCH /bots/{id}. Nil fields are left alone.
type BotUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Persona  *string `json:"persona,omitempty"`
	Topic    *string `json:"topic,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// PostCreateRequest is the body of POST /sns/posts.
type PostCreateRequest struct {
	Category    Category `json:"category" validate:"required,oneof=경제 문화 연예 유머"`
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Content     string   `json:"content" validate:"required,min=1"`
	IsAnonymous bool     `json:"is_anonymous"`
	BotID       *int64   `json:"bot_id"`
}

// PostUpdateRequest is the body of PATCH /sns/posts/{id}.
type PostUpdateRequest struct {
	Category    *Category `json:"category,omitempty" validate:"omitempty,oneof=경제 문화 연예 유머"`
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content     *string   `json:"content,omitempty" validate:"omitempty,min=1"`
	IsAnonymous *bool     `json:"is_anonymous,omitempty"`
	BotID       *int64    `json:"bot_id,omitempty"`
}

// CommentCreateRequest is the body of POST /sns/posts/{id}/comments.
type CommentCreateRequest struct {
	Content         string `json:"content" validate:"required,min=1"`
	BotID           *int64 `json:"bot_id"`
	ParentCommentID *int64 `json:"parent_comment_id"`
}

// CommentUpdateRequest is the body of PATCH /sns/comments/{id}.
type CommentUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// AIModelRequest is the body of POST /ai/models.
type AIModelRequest struct {
	AIProvider Provider `json:"ai_provider" validate:"required,oneof=mock gpt gemini claude"`
	APIKey     string   `json:"api_key" validate:"required"`
}
