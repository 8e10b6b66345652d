package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
)

// ChatService owns the conversation/message operations behind both the live
// relay and the REST fallbacks. The durable store is the source of truth;
// the live channel only adds low-latency notification on top.
type ChatService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	presence      domain.PresenceRepository

	MaxMessageLength int
	MessagePageSize  int
}

func NewChatService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	presence domain.PresenceRepository,
	maxMessageLength, messagePageSize int,
) *ChatService {
	if maxMessageLength <= 0 {
		maxMessageLength = 5000
	}
	if messagePageSize <= 0 {
		messagePageSize = 100
	}
	return &ChatService{
		conversations:    conversations,
		messages:         messages,
		presence:         presence,
		MaxMessageLength: maxMessageLength,
		MessagePageSize:  messagePageSize,
	}
}

// Authorize resolves the conversation's participant pair and checks the
// requesting user is one of them.
func (s *ChatService) Authorize(ctx context.Context, conversationID, userID int64) (*domain.Participants, error) {
	parts, err := s.conversations.Participants(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	if parts == nil {
		return nil, domain.ErrNotFound
	}
	if !parts.Has(userID) {
		return nil, domain.ErrForbidden
	}
	return parts, nil
}

type MessageSendInput struct {
	ConversationID int64
	Content        string
	MessageType    string
	MediaURL       *string
}

// SendMessage persists a message from senderID and bumps the conversation's
// updated_at. It returns the participant pair so the caller can compute the
// recipient for fan-out.
func (s *ChatService) SendMessage(ctx context.Context, in MessageSendInput, senderID int64) (*domain.Message, *domain.Participants, error) {
	parts, err := s.Authorize(ctx, in.ConversationID, senderID)
	if err != nil {
		return nil, nil, err
	}

	if in.MessageType == "" {
		in.MessageType = domain.MessageText
	}
	switch in.MessageType {
	case domain.MessageText, domain.MessageContact, domain.MessageSystem, domain.MessageImage, domain.MessageAudio:
	default:
		return nil, nil, fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidInput, in.MessageType)
	}
	if in.Content == "" && (in.MediaURL == nil || *in.MediaURL == "") {
		return nil, nil, fmt.Errorf("%w: message content cannot be empty", domain.ErrInvalidInput)
	}
	if len([]rune(in.Content)) > s.MaxMessageLength {
		return nil, nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, s.MaxMessageLength)
	}

	msg := &domain.Message{
		ConversationID: in.ConversationID,
		SenderID:       senderID,
		Content:        in.Content,
		MessageType:    in.MessageType,
		MediaURL:       in.MediaURL,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, nil, err
	}
	if err := s.conversations.Touch(ctx, in.ConversationID, msg.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("touch conversation: %w", err)
	}
	return msg, parts, nil
}

// MarkConversationRead stamps read_at on every message in the conversation
// sent by someone other than readerID. Idempotent: re-running it touches no
// already-read rows.
func (s *ChatService) MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	if _, err := s.Authorize(ctx, conversationID, readerID); err != nil {
		return 0, err
	}
	return s.messages.MarkReadBulk(ctx, conversationID, readerID, time.Now().UTC())
}

func (s *ChatService) GetMessage(ctx context.Context, messageID int64) (*domain.Message, error) {
	return s.messages.GetByID(ctx, messageID)
}

// DeleteMessage soft-deletes a message. Only the original sender may delete;
// anyone else gets ErrForbidden and the message is untouched.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, conversationID, callerID int64) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.ConversationID != conversationID {
		return nil, domain.ErrNotFound
	}
	if msg.SenderID != callerID {
		return nil, domain.ErrForbidden
	}
	now := time.Now().UTC()
	if err := s.messages.SoftDelete(ctx, messageID, now); err != nil {
		return nil, err
	}
	if msg.DeletedAt == nil {
		msg.DeletedAt = &now
	}
	return msg, nil
}

// GetOrCreateConversation returns the conversation for (listing, leaser),
// creating it if missing. A concurrent create for the same pair loses the
// unique-index race and re-reads the winner's row.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, listingID, ownerID, leaserID int64) (*domain.Conversation, error) {
	if ownerID == leaserID {
		return nil, fmt.Errorf("%w: owner and leaser must differ", domain.ErrInvalidInput)
	}
	existing, err := s.conversations.GetByListingAndLeaser(ctx, listingID, leaserID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		ListingID:     listingID,
		OwnerID:       ownerID,
		LeaserID:      leaserID,
		ContactStatus: domain.ContactPending,
	}
	err = s.conversations.Create(ctx, conv)
	if errors.Is(err, domain.ErrConflict) {
		return s.conversations.GetByListingAndLeaser(ctx, listingID, leaserID)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// ListMessages is the polling fallback read: chronological messages, newer
// than afterID when given.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID, afterID int64, limit int) ([]*domain.Message, error) {
	if _, err := s.Authorize(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.MessagePageSize {
		limit = s.MessagePageSize
	}
	return s.messages.ListForConversation(ctx, conversationID, afterID, limit)
}

// CounterpartIDs returns the distinct users sharing at least one conversation
// with userID, in most-recently-updated order. Presence fan-out is scoped to
// exactly this set.
func (s *ChatService) CounterpartIDs(ctx context.Context, userID int64) ([]int64, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	seen := make(map[int64]struct{}, len(convs))
	var ids []int64
	for _, c := range convs {
		other := domain.Participants{OwnerID: c.OwnerID, LeaserID: c.LeaserID}.Other(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids, nil
}

func (s *ChatService) SetOnline(ctx context.Context, userID int64) error {
	return s.presence.Upsert(ctx, userID, true, time.Now().UTC())
}

func (s *ChatService) SetOffline(ctx context.Context, userID int64) error {
	return s.presence.Upsert(ctx, userID, false, time.Now().UTC())
}

// DecideContact lets the listing owner approve or reject the conversation's
// contact request. Approval shares contact details and records a system
// message in the thread.
func (s *ChatService) DecideContact(ctx context.Context, conversationID, callerID int64, approve bool) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	if conv.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	status := domain.ContactRejected
	if approve {
		status = domain.ContactApproved
	}
	if err := s.conversations.SetContactStatus(ctx, conversationID, status, approve); err != nil {
		return nil, err
	}
	conv.ContactStatus = status
	conv.ContactShared = approve

	if approve {
		note := &domain.Message{
			ConversationID: conversationID,
			SenderID:       callerID,
			Content:        "Contact request approved",
			MessageType:    domain.MessageSystem,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.messages.Create(ctx, note); err != nil {
			return nil, fmt.Errorf("create system message: %w", err)
		}
	}
	return conv, nil
}
