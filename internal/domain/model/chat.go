package model

import (
	"strings"
	"time"
)

// ChatSide identifies one of the two independent conversation panes that
// share a chat id. Each side runs its own model and system prompt so the
// student can compare answers.
type ChatSide string

const (
	SideLeft  ChatSide = "left"
	SideRight ChatSide = "right"
)

func ParseChatSide(s string) (ChatSide, bool) {
	switch ChatSide(strings.ToLower(strings.TrimSpace(s))) {
	case SideLeft:
		return SideLeft, true
	case SideRight:
		return SideRight, true
	}
	return "", false
}

// Attachment is a file the user attached to a message, already uploaded to
// object storage and referenced by URL.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	Name        string `json:"name,omitempty"`
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// ChatMessage is one role-tagged turn within a conversation side.
type ChatMessage struct {
	Role        string       `json:"role"` // "user" | "assistant"
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// SidePane holds the fields owned by one conversation side. A write to one
// side must never touch the other side's pane.
type SidePane struct {
	Messages     []ChatMessage
	Model        string
	SystemPrompt string
}

// Chat is the aggregate persisted per conversation id.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	Path      string
	CreatedAt time.Time
	Left      SidePane
	Right     SidePane
}

// ChatUpdate is a merge-on-write mutation scoped to a single side. The store
// applies only the common fields plus the fields of Side, leaving the other
// side untouched.
type ChatUpdate struct {
	ID           string
	UserID       string
	Side         ChatSide
	Messages     []ChatMessage
	Model        string
	SystemPrompt string
	Title        string
	CreatedAt    time.Time
}

// Pane returns the side pane the update targets.
func (c *Chat) Pane(side ChatSide) *SidePane {
	if side == SideRight {
		return &c.Right
	}
	return &c.Left
}

const (
	maxTitleLen  = 100
	defaultTitle = "Novi razgovor"
)

// TitleFromMessages derives a chat title from the first message, truncated
// to 100 characters.
func TitleFromMessages(msgs []ChatMessage) string {
	if len(msgs) == 0 || strings.TrimSpace(msgs[0].Content) == "" {
		return defaultTitle
	}
	t := msgs[0].Content
	// Truncation counts characters, not bytes, so a multi-byte rune is never
	// split.
	if r := []rune(t); len(r) > maxTitleLen {
		t = string(r[:maxTitleLen])
	}
	return t
}

func ChatPath(id string) string { return "/c/" + id }
