package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
	"github.com/PritStyling132/Rentpal-sub001/internal/ws"
)

type messageCreateRequest struct {
	Content     string  `json:"content"`
	MessageType string  `json:"messageType"`
	MediaURL    *string `json:"mediaUrl"`
}

// handleCreateMessage is the direct-write fallback for clients without a
// live connection. It persists exactly like the relay's send_message and
// still best-effort notifies a connected recipient.
func handleCreateMessage(chatSvc *service.ChatService, registry *ws.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID, ok := conversationIDParam(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		var req messageCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, parts, err := chatSvc.SendMessage(r.Context(), service.MessageSendInput{
			ConversationID: convID,
			Content:        req.Content,
			MessageType:    req.MessageType,
			MediaURL:       req.MediaURL,
		}, currentUser.ID)
		if err != nil {
			writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
			return
		}

		if rc := registry.Lookup(parts.Other(currentUser.ID)); rc != nil {
			_ = rc.Send(map[string]any{
				"type":           "new_message",
				"message":        msg,
				"conversationId": msg.ConversationID,
			})
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// handleListMessages is the polling fallback: chronological messages, with
// ?after=<id> to fetch only what the client has not merged yet.
func handleListMessages(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID, ok := conversationIDParam(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}

		var afterID int64
		if v := r.URL.Query().Get("after"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid after parameter"})
				return
			}
			afterID = id
		}
		var limit int
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit parameter"})
				return
			}
			limit = n
		}

		msgs, err := chatSvc.ListMessages(r.Context(), convID, currentUser.ID, afterID, limit)
		if err != nil {
			writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
			return
		}
		if msgs == nil {
			msgs = []*domain.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// handleMarkConversationRead is the direct fallback for read receipts.
func handleMarkConversationRead(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID, ok := conversationIDParam(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}
		count, err := chatSvc.MarkConversationRead(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "updated": count})
	}
}
