package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
)

type mockChat struct {
	mock.Mock
}

func (m *mockChat) Authorize(ctx context.Context, conversationID, userID int64) (*domain.Participants, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participants), args.Error(1)
}

func (m *mockChat) SendMessage(ctx context.Context, in service.MessageSendInput, senderID int64) (*domain.Message, *domain.Participants, error) {
	args := m.Called(ctx, in, senderID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Message), args.Get(1).(*domain.Participants), args.Error(2)
}

func (m *mockChat) MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChat) GetMessage(ctx context.Context, messageID int64) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockChat) DeleteMessage(ctx context.Context, messageID, conversationID, callerID int64) (*domain.Message, error) {
	args := m.Called(ctx, messageID, conversationID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockChat) CounterpartIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockChat) SetOnline(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockChat) SetOffline(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

const (
	ownerID  = int64(1)
	leaserID = int64(2)
	convID   = int64(10)
)

func pair() *domain.Participants {
	return &domain.Participants{OwnerID: ownerID, LeaserID: leaserID}
}

func newTestRelay() (*Relay, *Registry, *Rooms, *mockChat) {
	registry := NewRegistry()
	rooms := NewRooms()
	chat := new(mockChat)
	return NewRelay(registry, rooms, chat), registry, rooms, chat
}

func TestJoinConversation(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	conn, sock := newTestConn(leaserID)
	registry.Register(leaserID, conn)

	chat.On("Authorize", mock.Anything, convID, leaserID).Return(pair(), nil)

	relay.HandleFrame(context.Background(), conn, Frame{Type: FrameJoinConversation, ConversationID: convID})

	assert.True(t, rooms.IsJoined(leaserID, convID))
	assert.Equal(t, []string{"joined_conversation"}, sock.frameTypes())
	assert.Equal(t, convID, sock.frame(0)["conversationId"])
}

func TestJoinConversationDeniedIsSilent(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	conn, sock := newTestConn(99)
	registry.Register(99, conn)

	chat.On("Authorize", mock.Anything, convID, int64(99)).Return(nil, domain.ErrForbidden)

	relay.HandleFrame(context.Background(), conn, Frame{Type: FrameJoinConversation, ConversationID: convID})

	// Non-participants learn nothing, not even an error frame.
	assert.False(t, rooms.IsJoined(99, convID))
	assert.Equal(t, 0, sock.frameCount())
}

func TestSendMessageToOfflineRecipient(t *testing.T) {
	relay, registry, _, chat := newTestRelay()
	sender, sock := newTestConn(leaserID)
	registry.Register(leaserID, sender)

	msg := &domain.Message{ID: 5, ConversationID: convID, SenderID: leaserID, Content: "hello", MessageType: domain.MessageText}
	chat.On("SendMessage", mock.Anything, mock.MatchedBy(func(in service.MessageSendInput) bool {
		return in.ConversationID == convID && in.Content == "hello"
	}), leaserID).Return(msg, pair(), nil)

	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameSendMessage, ConversationID: convID, Content: "hello"})

	// Persisted and acked; the offline owner gets nothing and no error is
	// raised anywhere.
	chat.AssertCalled(t, "SendMessage", mock.Anything, mock.Anything, leaserID)
	assert.Equal(t, []string{"message_sent"}, sock.frameTypes())
}

func TestSendMessageFansOutToOnlineRecipient(t *testing.T) {
	relay, registry, _, chat := newTestRelay()
	sender, senderSock := newTestConn(leaserID)
	recipient, recipientSock := newTestConn(ownerID)
	registry.Register(leaserID, sender)
	registry.Register(ownerID, recipient)

	msg := &domain.Message{ID: 5, ConversationID: convID, SenderID: leaserID, Content: "hello"}
	chat.On("SendMessage", mock.Anything, mock.Anything, leaserID).Return(msg, pair(), nil)

	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameSendMessage, ConversationID: convID, Content: "hello"})

	assert.Equal(t, []string{"message_sent"}, senderSock.frameTypes())
	assert.Equal(t, []string{"new_message"}, recipientSock.frameTypes())
	// Both carry the identical persisted message.
	assert.Same(t, msg, senderSock.frame(0)["message"])
	assert.Same(t, msg, recipientSock.frame(0)["message"])
}

func TestTypingRequiresRecipientJoined(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	sender, _ := newTestConn(leaserID)
	recipient, recipientSock := newTestConn(ownerID)
	registry.Register(leaserID, sender)
	registry.Register(ownerID, recipient)

	chat.On("Authorize", mock.Anything, convID, leaserID).Return(pair(), nil)

	// Recipient has not joined the conversation: no indicator.
	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameTyping, ConversationID: convID})
	assert.Equal(t, 0, recipientSock.frameCount())

	rooms.Join(ownerID, convID)
	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameTyping, ConversationID: convID})
	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameStopTyping, ConversationID: convID})
	assert.Equal(t, []string{"user_typing", "user_stopped_typing"}, recipientSock.frameTypes())
	assert.Equal(t, leaserID, recipientSock.frame(0)["userId"])

	// Leaving closes the gate again.
	rooms.Leave(ownerID, convID)
	relay.HandleFrame(context.Background(), sender, Frame{Type: FrameTyping, ConversationID: convID})
	assert.Equal(t, 2, recipientSock.frameCount())
}

func TestMarkReadNotifiesOnlineSender(t *testing.T) {
	relay, registry, _, chat := newTestRelay()
	reader, readerSock := newTestConn(ownerID)
	sender, senderSock := newTestConn(leaserID)
	registry.Register(ownerID, reader)
	registry.Register(leaserID, sender)

	msg := &domain.Message{ID: 5, ConversationID: convID, SenderID: leaserID}
	chat.On("MarkConversationRead", mock.Anything, convID, ownerID).Return(int64(1), nil)
	chat.On("GetMessage", mock.Anything, int64(5)).Return(msg, nil)

	relay.HandleFrame(context.Background(), reader, Frame{Type: FrameMarkRead, ConversationID: convID, MessageID: 5})

	assert.Equal(t, []string{"message_read"}, senderSock.frameTypes())
	assert.Equal(t, int64(5), senderSock.frame(0)["messageId"])
	assert.Equal(t, 0, readerSock.frameCount())
}

func TestDeleteMessageByNonSenderIsNoop(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	caller, callerSock := newTestConn(ownerID)
	peer, peerSock := newTestConn(leaserID)
	registry.Register(ownerID, caller)
	registry.Register(leaserID, peer)
	rooms.Join(leaserID, convID)

	chat.On("Authorize", mock.Anything, convID, ownerID).Return(pair(), nil)
	chat.On("DeleteMessage", mock.Anything, int64(5), convID, ownerID).Return(nil, domain.ErrForbidden)

	relay.HandleFrame(context.Background(), caller, Frame{Type: FrameDeleteMessage, ConversationID: convID, MessageID: 5})

	assert.Equal(t, 0, callerSock.frameCount())
	assert.Equal(t, 0, peerSock.frameCount())
}

func TestDeleteMessageFanOut(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	caller, callerSock := newTestConn(leaserID)
	peer, peerSock := newTestConn(ownerID)
	registry.Register(leaserID, caller)
	registry.Register(ownerID, peer)

	msg := &domain.Message{ID: 5, ConversationID: convID, SenderID: leaserID}
	chat.On("Authorize", mock.Anything, convID, leaserID).Return(pair(), nil)
	chat.On("DeleteMessage", mock.Anything, int64(5), convID, leaserID).Return(msg, nil)

	// Recipient not viewing the conversation: only the caller hears back.
	relay.HandleFrame(context.Background(), caller, Frame{Type: FrameDeleteMessage, ConversationID: convID, MessageID: 5})
	assert.Equal(t, []string{"message_deleted"}, callerSock.frameTypes())
	assert.Equal(t, 0, peerSock.frameCount())

	rooms.Join(ownerID, convID)
	relay.HandleFrame(context.Background(), caller, Frame{Type: FrameDeleteMessage, ConversationID: convID, MessageID: 5})
	assert.Equal(t, []string{"message_deleted"}, peerSock.frameTypes())
}

func TestUserOnlineFanOut(t *testing.T) {
	relay, registry, _, chat := newTestRelay()
	conn, sock := newTestConn(leaserID)
	online, onlineSock := newTestConn(ownerID)
	registry.Register(leaserID, conn)
	registry.Register(ownerID, online)
	// User 3 shares a conversation but is offline.

	chat.On("SetOnline", mock.Anything, leaserID).Return(nil)
	chat.On("CounterpartIDs", mock.Anything, leaserID).Return([]int64{ownerID, 3}, nil)

	relay.HandleFrame(context.Background(), conn, Frame{Type: FrameUserOnline})

	assert.Equal(t, []string{"online_users"}, sock.frameTypes())
	assert.Equal(t, []int64{ownerID}, sock.frame(0)["userIds"])
	assert.Equal(t, []string{"user_online"}, onlineSock.frameTypes())
	assert.Equal(t, leaserID, onlineSock.frame(0)["userId"])
}

func TestUnknownFrameAnswersError(t *testing.T) {
	relay, registry, _, _ := newTestRelay()
	conn, sock := newTestConn(leaserID)
	registry.Register(leaserID, conn)

	relay.HandleFrame(context.Background(), conn, Frame{Type: "bogus"})

	assert.Equal(t, []string{"error"}, sock.frameTypes())
}

func TestDisconnectBroadcastsOffline(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	conn, _ := newTestConn(leaserID)
	peer, peerSock := newTestConn(ownerID)
	registry.Register(leaserID, conn)
	registry.Register(ownerID, peer)
	rooms.Join(leaserID, convID)

	chat.On("SetOffline", mock.Anything, leaserID).Return(nil)
	chat.On("CounterpartIDs", mock.Anything, leaserID).Return([]int64{ownerID, 3}, nil)

	conn.MarkClosed()
	relay.HandleDisconnect(context.Background(), conn)

	assert.Equal(t, []string{"user_offline"}, peerSock.frameTypes())
	assert.Nil(t, registry.Lookup(leaserID))
	assert.False(t, rooms.IsJoined(leaserID, convID))
}

func TestSupersededDisconnectSkipsCleanup(t *testing.T) {
	relay, registry, rooms, chat := newTestRelay()
	first, _ := newTestConn(leaserID)
	registry.Register(leaserID, first)
	rooms.Join(leaserID, convID)

	second, _ := newTestConn(leaserID)
	registry.Register(leaserID, second)

	// The first connection's delayed close event must not tear down state
	// the replacement now owns.
	relay.HandleDisconnect(context.Background(), first)

	chat.AssertNotCalled(t, "SetOffline", mock.Anything, mock.Anything)
	assert.Same(t, second, registry.Lookup(leaserID))
	assert.True(t, rooms.IsJoined(leaserID, convID))
}

func TestHandleConnectSendsConfirmation(t *testing.T) {
	relay, registry, _, chat := newTestRelay()
	conn, sock := newTestConn(leaserID)

	chat.On("SetOnline", mock.Anything, leaserID).Return(nil)

	relay.HandleConnect(context.Background(), conn)

	assert.Same(t, conn, registry.Lookup(leaserID))
	assert.Equal(t, []string{"connection"}, sock.frameTypes())
	assert.Equal(t, "connected", sock.frame(0)["status"])
}
