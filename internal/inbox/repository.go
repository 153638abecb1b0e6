package inbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidMessage = errors.New("inbox: invalid message")

// Repository is the message-log contract. The log is append-only; the
// analytics reconciler treats it as the authoritative source for replies
// and opens.
type Repository interface {
	Append(ctx context.Context, m Message) (Message, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]Message, error)
}

// PostgresRepo stores messages in a single messages table.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) Append(ctx context.Context, m Message) (Message, error) {
	if m.CampaignID == "" || m.ContactID == "" || m.Sender == "" {
		return Message{}, ErrInvalidMessage
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.clock().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, campaign_id, contact_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.CampaignID, m.ContactID, string(m.Sender), m.Body, m.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

func (r *PostgresRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Message, error) {
	if campaignID == "" {
		return nil, ErrInvalidMessage
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, contact_id, sender, body, created_at
		FROM messages
		WHERE campaign_id = $1
		ORDER BY created_at ASC`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		var sender string
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.ContactID, &sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = Sender(sender)
		out = append(out, m)
	}
	return out, rows.Err()
}
