package ws

import "sync"

// Rooms tracks which conversations each user is actively viewing. Typing
// indicators are delivered only to users joined to the conversation, so a
// closed chat thread never shows a stray indicator.
type Rooms struct {
	mu     sync.RWMutex
	byUser map[int64]map[int64]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{byUser: make(map[int64]map[int64]struct{})}
}

func (r *Rooms) Join(userID, conversationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[int64]struct{})
	}
	r.byUser[userID][conversationID] = struct{}{}
}

func (r *Rooms) Leave(userID, conversationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if convs, ok := r.byUser[userID]; ok {
		delete(convs, conversationID)
		if len(convs) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *Rooms) IsJoined(userID, conversationID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID][conversationID]
	return ok
}

// Clear drops the user's whole viewing set, used on disconnect.
func (r *Rooms) Clear(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}
