package ws

// Inbound frame types.
const (
	FrameJoinConversation  = "join_conversation"
	FrameLeaveConversation = "leave_conversation"
	FrameSendMessage       = "send_message"
	FrameTyping            = "typing"
	FrameStopTyping        = "stop_typing"
	FrameMarkRead          = "mark_read"
	FrameDeleteMessage     = "delete_message"
	FrameUserOnline        = "user_online"
)

// Frame is an inbound client frame; Type discriminates which of the other
// fields are meaningful.
type Frame struct {
	Type           string  `json:"type"`
	ConversationID int64   `json:"conversationId,omitempty"`
	MessageID      int64   `json:"messageId,omitempty"`
	Content        string  `json:"content,omitempty"`
	MessageType    string  `json:"messageType,omitempty"`
	MediaURL       *string `json:"mediaUrl,omitempty"`
}
