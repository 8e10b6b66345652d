package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
)

type PresenceRepo struct {
	db *sql.DB
}

func NewPresenceRepo(db *sql.DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

var _ domain.PresenceRepository = (*PresenceRepo)(nil)

func (r *PresenceRepo) Upsert(ctx context.Context, userID int64, isOnline bool, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO online_status (user_id, is_online, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			is_online = excluded.is_online,
			last_seen = excluded.last_seen
	`, userID, isOnline, lastSeen)
	if err != nil {
		return fmt.Errorf("upsert online status: %w", err)
	}
	return nil
}
