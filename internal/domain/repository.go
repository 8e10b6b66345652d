package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	GetByListingAndLeaser(ctx context.Context, listingID, leaserID int64) (*Conversation, error)
	Participants(ctx context.Context, conversationID int64) (*Participants, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	SetContactStatus(ctx context.Context, conversationID int64, status string, shared bool) error
	Touch(ctx context.Context, conversationID int64, now time.Time) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	ListForConversation(ctx context.Context, conversationID, afterID int64, limit int) ([]*Message, error)
	MarkReadBulk(ctx context.Context, conversationID, excludeSenderID int64, now time.Time) (int64, error)
	SoftDelete(ctx context.Context, messageID int64, now time.Time) error
}

// PresenceRepository defines operations on durable online-status rows.
type PresenceRepository interface {
	Upsert(ctx context.Context, userID int64, isOnline bool, lastSeen time.Time) error
}
