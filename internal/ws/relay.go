package ws

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
)

// ChatBackend is what the relay needs from the chat service. Satisfied by
// *service.ChatService; mocked in tests.
type ChatBackend interface {
	Authorize(ctx context.Context, conversationID, userID int64) (*domain.Participants, error)
	SendMessage(ctx context.Context, in service.MessageSendInput, senderID int64) (*domain.Message, *domain.Participants, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error)
	GetMessage(ctx context.Context, messageID int64) (*domain.Message, error)
	DeleteMessage(ctx context.Context, messageID, conversationID, callerID int64) (*domain.Message, error)
	CounterpartIDs(ctx context.Context, userID int64) ([]int64, error)
	SetOnline(ctx context.Context, userID int64) error
	SetOffline(ctx context.Context, userID int64) error
}

// Relay interprets inbound frames from authenticated connections, mutates
// the durable store, and fans out notifications through the registry.
type Relay struct {
	registry *Registry
	rooms    *Rooms
	chat     ChatBackend
}

func NewRelay(registry *Registry, rooms *Rooms, chat ChatBackend) *Relay {
	return &Relay{
		registry: registry,
		rooms:    rooms,
		chat:     chat,
	}
}

// HandleConnect admits an authenticated connection: presence goes online,
// any prior connection for the user is superseded, and the client gets a
// confirmation frame.
func (r *Relay) HandleConnect(ctx context.Context, conn *Conn) {
	if err := r.chat.SetOnline(ctx, conn.UserID); err != nil {
		log.Printf("ws: set online for %d: %v", conn.UserID, err)
	}
	r.registry.Register(conn.UserID, conn)
	_ = conn.Send(map[string]any{
		"type":   "connection",
		"status": "connected",
		"userId": conn.UserID,
	})
}

// HandleDisconnect runs when a connection's read loop ends. A superseded
// connection skips everything: the replacement owns the identity now.
func (r *Relay) HandleDisconnect(ctx context.Context, conn *Conn) {
	if conn.Superseded() {
		return
	}
	if err := r.chat.SetOffline(ctx, conn.UserID); err != nil {
		log.Printf("ws: set offline for %d: %v", conn.UserID, err)
	}
	ids, err := r.chat.CounterpartIDs(ctx, conn.UserID)
	if err != nil {
		log.Printf("ws: counterparts for %d: %v", conn.UserID, err)
	}
	for _, id := range ids {
		if pc := r.registry.Lookup(id); pc != nil {
			_ = pc.Send(map[string]any{"type": "user_offline", "userId": conn.UserID})
		}
	}
	r.registry.Evict(conn.UserID, conn)
	r.rooms.Clear(conn.UserID)
}

// HandleFrame dispatches one inbound frame. Nothing that goes wrong here may
// kill the connection: authorization and lookup failures are logged and
// dropped, everything else is answered with an error frame.
func (r *Relay) HandleFrame(ctx context.Context, conn *Conn, f Frame) {
	err := r.dispatch(ctx, conn, f)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound):
		log.Printf("ws: %s from user %d rejected: %v", f.Type, conn.UserID, err)
	case errors.Is(err, domain.ErrInvalidInput):
		log.Printf("ws: %s from user %d: %v", f.Type, conn.UserID, err)
		sendError(conn, err.Error())
	default:
		log.Printf("ws: %s from user %d failed: %v", f.Type, conn.UserID, err)
		sendError(conn, fmt.Sprintf("failed to handle %s", f.Type))
	}
}

func (r *Relay) dispatch(ctx context.Context, conn *Conn, f Frame) error {
	switch f.Type {
	case FrameJoinConversation:
		return r.joinConversation(ctx, conn, f)
	case FrameLeaveConversation:
		r.rooms.Leave(conn.UserID, f.ConversationID)
		return nil
	case FrameSendMessage:
		return r.sendMessage(ctx, conn, f)
	case FrameTyping, FrameStopTyping:
		return r.typing(ctx, conn, f)
	case FrameMarkRead:
		return r.markRead(ctx, conn, f)
	case FrameDeleteMessage:
		return r.deleteMessage(ctx, conn, f)
	case FrameUserOnline:
		return r.userOnline(ctx, conn)
	default:
		sendError(conn, fmt.Sprintf("unknown event type %q", f.Type))
		return nil
	}
}

func (r *Relay) joinConversation(ctx context.Context, conn *Conn, f Frame) error {
	if _, err := r.chat.Authorize(ctx, f.ConversationID, conn.UserID); err != nil {
		return err
	}
	r.rooms.Join(conn.UserID, f.ConversationID)
	_ = conn.Send(map[string]any{
		"type":           "joined_conversation",
		"conversationId": f.ConversationID,
	})
	return nil
}

func (r *Relay) sendMessage(ctx context.Context, conn *Conn, f Frame) error {
	msg, parts, err := r.chat.SendMessage(ctx, service.MessageSendInput{
		ConversationID: f.ConversationID,
		Content:        f.Content,
		MessageType:    f.MessageType,
		MediaURL:       f.MediaURL,
	}, conn.UserID)
	if err != nil {
		return err
	}

	_ = conn.Send(map[string]any{
		"type":    "message_sent",
		"message": msg,
	})
	// Offline recipient: nothing queued, the message is waiting in the store
	// for their next poll.
	if rc := r.registry.Lookup(parts.Other(conn.UserID)); rc != nil {
		_ = rc.Send(map[string]any{
			"type":           "new_message",
			"message":        msg,
			"conversationId": msg.ConversationID,
		})
	}
	return nil
}

func (r *Relay) typing(ctx context.Context, conn *Conn, f Frame) error {
	parts, err := r.chat.Authorize(ctx, f.ConversationID, conn.UserID)
	if err != nil {
		return err
	}
	recipient := parts.Other(conn.UserID)
	if !r.rooms.IsJoined(recipient, f.ConversationID) {
		return nil
	}
	rc := r.registry.Lookup(recipient)
	if rc == nil {
		return nil
	}
	out := "user_typing"
	if f.Type == FrameStopTyping {
		out = "user_stopped_typing"
	}
	_ = rc.Send(map[string]any{
		"type":           out,
		"conversationId": f.ConversationID,
		"userId":         conn.UserID,
	})
	return nil
}

func (r *Relay) markRead(ctx context.Context, conn *Conn, f Frame) error {
	if _, err := r.chat.MarkConversationRead(ctx, f.ConversationID, conn.UserID); err != nil {
		return err
	}
	msg, err := r.chat.GetMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.ConversationID != f.ConversationID {
		return domain.ErrNotFound
	}
	if sc := r.registry.Lookup(msg.SenderID); sc != nil {
		_ = sc.Send(map[string]any{
			"type":           "message_read",
			"messageId":      f.MessageID,
			"conversationId": f.ConversationID,
		})
	}
	return nil
}

func (r *Relay) deleteMessage(ctx context.Context, conn *Conn, f Frame) error {
	parts, err := r.chat.Authorize(ctx, f.ConversationID, conn.UserID)
	if err != nil {
		return err
	}
	msg, err := r.chat.DeleteMessage(ctx, f.MessageID, f.ConversationID, conn.UserID)
	if err != nil {
		return err
	}

	out := map[string]any{
		"type":           "message_deleted",
		"conversationId": msg.ConversationID,
		"messageId":      msg.ID,
	}
	_ = conn.Send(out)
	recipient := parts.Other(conn.UserID)
	if r.rooms.IsJoined(recipient, f.ConversationID) {
		if rc := r.registry.Lookup(recipient); rc != nil {
			_ = rc.Send(out)
		}
	}
	return nil
}

func (r *Relay) userOnline(ctx context.Context, conn *Conn) error {
	if err := r.chat.SetOnline(ctx, conn.UserID); err != nil {
		return err
	}
	ids, err := r.chat.CounterpartIDs(ctx, conn.UserID)
	if err != nil {
		return err
	}

	online := make([]int64, 0, len(ids))
	var peers []*Conn
	for _, id := range ids {
		if pc := r.registry.Lookup(id); pc != nil {
			online = append(online, id)
			peers = append(peers, pc)
		}
	}
	_ = conn.Send(map[string]any{
		"type":    "online_users",
		"userIds": online,
	})
	for _, pc := range peers {
		_ = pc.Send(map[string]any{"type": "user_online", "userId": conn.UserID})
	}
	return nil
}

func sendError(conn *Conn, msg string) {
	_ = conn.Send(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
