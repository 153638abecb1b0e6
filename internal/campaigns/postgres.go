package campaigns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"outreach-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresRepo persists campaigns in two tables:
//
//	campaigns          core record, channel flags and caches as jsonb
//	campaign_contacts  one row per uploaded contact
//
// Contact replacement happens inside a transaction so a re-upload can never
// leave a campaign with a half-written list.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) Create(ctx context.Context, c Campaign) (Campaign, error) {
	if c.OwnerID == "" || c.Title == "" {
		return Campaign{}, ErrInvalidArgument
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.clock().UTC()
	}

	channels, err := json.Marshal(c.Channels)
	if err != nil {
		return Campaign{}, err
	}

	err = utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO campaigns (id, owner_id, title, description, status, channels, call_script, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.OwnerID, c.Title, c.Description, string(c.Status), channels, c.CallScript, c.CreatedAt,
		)
		if err != nil {
			return err
		}
		return insertContacts(ctx, tx, c.ID, c.Contacts)
	})
	if err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, ownerID, campaignID string) (Campaign, error) {
	if ownerID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, status, channels, call_script,
		       call_stats, call_results, created_at, launched_at, calls_initiated_at
		FROM campaigns
		WHERE id = $1 AND owner_id = $2`,
		campaignID, ownerID,
	)
	c, err := scanCampaign(row)
	if err != nil {
		return Campaign{}, err
	}
	contacts, err := r.listContacts(ctx, campaignID)
	if err != nil {
		return Campaign{}, err
	}
	c.Contacts = contacts
	return c, nil
}

func (r *PostgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error) {
	if ownerID == "" {
		return nil, ErrInvalidArgument
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, status, channels, call_script,
		       call_stats, call_results, created_at, launched_at, calls_initiated_at
		FROM campaigns
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

func (r *PostgresRepo) ListLaunched(ctx context.Context) ([]Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, status, channels, call_script,
		       call_stats, call_results, created_at, launched_at, calls_initiated_at
		FROM campaigns
		WHERE status = $1`,
		string(StatusLaunched),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := collectCampaigns(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		contacts, err := r.listContacts(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Contacts = contacts
	}
	return out, nil
}

func (r *PostgresRepo) SetContacts(ctx context.Context, ownerID, campaignID string, contacts []Contact) error {
	if ownerID == "" || campaignID == "" {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireOwned(ctx, tx, ownerID, campaignID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM campaign_contacts WHERE campaign_id = $1`, campaignID); err != nil {
			return err
		}
		return insertContacts(ctx, tx, campaignID, contacts)
	})
}

func (r *PostgresRepo) SetCallScript(ctx context.Context, ownerID, campaignID, script string) error {
	if ownerID == "" || campaignID == "" {
		return ErrInvalidArgument
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET call_script = $1 WHERE id = $2 AND owner_id = $3`,
		script, campaignID, ownerID,
	)
	if err != nil {
		return err
	}
	return requireRowTouched(res)
}

func (r *PostgresRepo) RecordLaunch(ctx context.Context, ownerID, campaignID string, results CallResults, at time.Time) error {
	if ownerID == "" || campaignID == "" {
		return ErrInvalidArgument
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $1, call_results = $2, launched_at = COALESCE(launched_at, $3), calls_initiated_at = $3
		WHERE id = $4 AND owner_id = $5`,
		string(StatusLaunched), payload, at.UTC(), campaignID, ownerID,
	)
	if err != nil {
		return err
	}
	return requireRowTouched(res)
}

// UpdateCallStats overwrites only the callStats cache. Not owner-scoped:
// the reconciler and the cron refresher run server-side against campaigns
// they already loaded.
func (r *PostgresRepo) UpdateCallStats(ctx context.Context, campaignID string, stats CallStats) error {
	if campaignID == "" {
		return ErrInvalidArgument
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET call_stats = $1 WHERE id = $2`, payload, campaignID)
	if err != nil {
		return err
	}
	return requireRowTouched(res)
}

func (r *PostgresRepo) listContacts(ctx context.Context, campaignID string) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, email, fields
		FROM campaign_contacts
		WHERE campaign_id = $1
		ORDER BY id`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		var fields []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &fields); err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &c.Fields); err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func insertContacts(ctx context.Context, tx *sql.Tx, campaignID string, contacts []Contact) error {
	for _, c := range contacts {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		var fields []byte
		if len(c.Fields) > 0 {
			var err error
			fields, err = json.Marshal(c.Fields)
			if err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO campaign_contacts (id, campaign_id, name, phone, email, fields)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, campaignID, c.Name, c.Phone, c.Email, fields,
		); err != nil {
			return err
		}
	}
	return nil
}

func requireOwned(ctx context.Context, tx *sql.Tx, ownerID, campaignID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM campaigns WHERE id = $1 AND owner_id = $2`, campaignID, ownerID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireRowTouched(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var c Campaign
	var status string
	var channels, callStats, callResults []byte
	var launchedAt, callsInitiatedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.Description, &status, &channels, &c.CallScript,
		&callStats, &callResults, &c.CreatedAt, &launchedAt, &callsInitiatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, err
	}

	c.Status = Status(status)
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &c.Channels); err != nil {
			return Campaign{}, err
		}
	}
	if len(callStats) > 0 {
		var cs CallStats
		if err := json.Unmarshal(callStats, &cs); err != nil {
			return Campaign{}, err
		}
		c.CallStats = &cs
	}
	if len(callResults) > 0 {
		var cr CallResults
		if err := json.Unmarshal(callResults, &cr); err != nil {
			return Campaign{}, err
		}
		c.CallResults = &cr
	}
	if launchedAt.Valid {
		t := launchedAt.Time
		c.LaunchedAt = &t
	}
	if callsInitiatedAt.Valid {
		t := callsInitiatedAt.Time
		c.CallsInitiatedAt = &t
	}
	return c, nil
}

func collectCampaigns(rows *sql.Rows) ([]Campaign, error) {
	out := make([]Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
