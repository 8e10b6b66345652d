package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, conversation_id, sender_id, content, message_type, media_url, created_at, read_at, deleted_at`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, message_type, media_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ConversationID, m.SenderID, m.Content, m.MessageType, m.MediaURL, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.Content,
		&m.MessageType,
		&m.MediaURL,
		&m.CreatedAt,
		&m.ReadAt,
		&m.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListForConversation returns messages in chronological order. afterID > 0
// limits the result to messages newer than that ID, which is what the
// polling fallback sends.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID, afterID int64, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ? AND id > ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.Content,
			&m.MessageType,
			&m.MediaURL,
			&m.CreatedAt,
			&m.ReadAt,
			&m.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// MarkReadBulk stamps read_at on every unread message in the conversation
// not sent by excludeSenderID. Already-read rows are untouched, so repeated
// calls cannot move a timestamp backwards.
func (r *MessageRepo) MarkReadBulk(ctx context.Context, conversationID, excludeSenderID int64, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET read_at = ?
		WHERE conversation_id = ? AND sender_id <> ? AND read_at IS NULL
	`, now, conversationID, excludeSenderID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SoftDelete stamps deleted_at while keeping the row and its content.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, now, messageID)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}
