package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
)

func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func conversationIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	return id, err == nil && id > 0
}

type conversationCreateRequest struct {
	ListingID int64 `json:"listingId"`
	OwnerID   int64 `json:"ownerId"`
}

func handleCreateConversation(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req conversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.ListingID <= 0 || req.OwnerID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listingId and ownerId are required"})
			return
		}

		conv, err := chatSvc.GetOrCreateConversation(r.Context(), req.ListingID, req.OwnerID, currentUser.ID)
		if err != nil {
			writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleListConversations(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convs, err := chatSvc.ListConversations(r.Context(), currentUser.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if convs == nil {
			convs = []*domain.Conversation{}
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

type contactDecisionRequest struct {
	Action string `json:"action"` // approve | reject
}

func handleContactDecision(chatSvc *service.ChatService) http.HandlerFunc {
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
		var req contactDecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.Action != "approve" && req.Action != "reject" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be approve or reject"})
			return
		}

		conv, err := chatSvc.DecideContact(r.Context(), convID, currentUser.ID, req.Action == "approve")
		if err != nil {
			writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}
