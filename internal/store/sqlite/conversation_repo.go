package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

const conversationColumns = `id, listing_id, owner_id, leaser_id, contact_status, contact_shared, created_at, updated_at`

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	if c.ContactStatus == "" {
		c.ContactStatus = domain.ContactPending
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (listing_id, owner_id, leaser_id, contact_status, contact_shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, c.ListingID, c.OwnerID, c.LeaserID, c.ContactStatus, c.ContactShared)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	return r.getBy(ctx, `WHERE id = ?`, id)
}

func (r *ConversationRepo) GetByListingAndLeaser(ctx context.Context, listingID, leaserID int64) (*domain.Conversation, error) {
	return r.getBy(ctx, `WHERE listing_id = ? AND leaser_id = ?`, listingID, leaserID)
}

func (r *ConversationRepo) getBy(ctx context.Context, where string, args ...any) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations ` + where
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.ListingID,
		&c.OwnerID,
		&c.LeaserID,
		&c.ContactStatus,
		&c.ContactShared,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) Participants(ctx context.Context, conversationID int64) (*domain.Participants, error) {
	p := &domain.Participants{}
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, leaser_id FROM conversations WHERE id = ?
	`, conversationID).Scan(&p.OwnerID, &p.LeaserID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	return p, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE owner_id = ? OR leaser_id = ?
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(
			&c.ID,
			&c.ListingID,
			&c.OwnerID,
			&c.LeaserID,
			&c.ContactStatus,
			&c.ContactShared,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ConversationRepo) SetContactStatus(ctx context.Context, conversationID int64, status string, shared bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET contact_status = ?, contact_shared = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, shared, conversationID)
	if err != nil {
		return fmt.Errorf("set contact status: %w", err)
	}
	return nil
}

func (r *ConversationRepo) Touch(ctx context.Context, conversationID int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, now, conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
