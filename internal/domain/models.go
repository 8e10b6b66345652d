package domain

import "time"

// User roles within the marketplace.
const (
	RoleOwner  = "owner"
	RoleLeaser = "leaser"
	RoleAdmin  = "admin"
)

// Contact-request states on a conversation.
const (
	ContactPending  = "pending"
	ContactApproved = "approved"
	ContactRejected = "rejected"
)

// Message type tags.
const (
	MessageText    = "text"
	MessageContact = "contact"
	MessageSystem  = "system"
	MessageImage   = "image"
	MessageAudio   = "audio"
)

// User represents an application user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           string    `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Conversation links a listing owner and a leaser around one listing.
// The participant pair is fixed at creation.
type Conversation struct {
	ID            int64     `db:"id" json:"id"`
	ListingID     int64     `db:"listing_id" json:"listingId"`
	OwnerID       int64     `db:"owner_id" json:"ownerId"`
	LeaserID      int64     `db:"leaser_id" json:"leaserId"`
	ContactStatus string    `db:"contact_status" json:"contactStatus"`
	ContactShared bool      `db:"contact_shared" json:"contactShared"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Participants is the fixed two-user membership of a conversation.
type Participants struct {
	OwnerID  int64 `json:"ownerId"`
	LeaserID int64 `json:"leaserId"`
}

// Has reports whether userID is one of the two participants.
func (p Participants) Has(userID int64) bool {
	return userID == p.OwnerID || userID == p.LeaserID
}

// Other returns the counterpart of userID. The caller must already know
// userID is a participant.
func (p Participants) Other(userID int64) int64 {
	if userID == p.OwnerID {
		return p.LeaserID
	}
	return p.OwnerID
}

// Message represents a single chat message. ReadAt and DeletedAt only ever
// move forward; a deleted message keeps its content (soft delete).
type Message struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversationId"`
	SenderID       int64      `db:"sender_id" json:"senderId"`
	Content        string     `db:"content" json:"content"`
	MessageType    string     `db:"message_type" json:"messageType"`
	MediaURL       *string    `db:"media_url" json:"mediaUrl,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	ReadAt         *time.Time `db:"read_at" json:"readAt,omitempty"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// OnlineStatus is the durable presence row for a user.
type OnlineStatus struct {
	UserID   int64     `db:"user_id" json:"userId"`
	IsOnline bool      `db:"is_online" json:"isOnline"`
	LastSeen time.Time `db:"last_seen" json:"lastSeen"`
}
