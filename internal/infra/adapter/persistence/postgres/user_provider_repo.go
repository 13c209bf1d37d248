package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/metrics"
	"feedient/internal/repository"

	"github.com/google/uuid"
)

// UserProviderRepo is the PostgreSQL store for linked accounts. It also
// serves as the provider.TokenUpdater used by refreshing auth strategies.
type UserProviderRepo struct{ db *sql.DB }

func NewUserProviderRepo(db *sql.DB) *UserProviderRepo {
	return &UserProviderRepo{db: db}
}

var _ repository.UserProviderRepository = (*UserProviderRepo)(nil)

const userProviderColumns = `id, user_id, provider, provider_user_id, account, tokens, sort_order, date_added`

type scanner interface {
	Scan(dest ...any) error
}

func scanUserProvider(row scanner) (*entity.UserProvider, error) {
	var (
		up          entity.UserProvider
		accountJSON []byte
		tokensJSON  []byte
	)
	if err := row.Scan(
		&up.ID, &up.UserID, &up.Provider, &up.ProviderUserID,
		&accountJSON, &tokensJSON, &up.Order, &up.DateAdded,
	); err != nil {
		return nil, err
	}

	if len(accountJSON) > 0 && string(accountJSON) != "null" {
		var acc entity.Account
		if err := json.Unmarshal(accountJSON, &acc); err != nil {
			return nil, fmt.Errorf("unmarshal account: %w", err)
		}
		up.Account = &acc
	}
	if len(tokensJSON) > 0 {
		if err := json.Unmarshal(tokensJSON, &up.Tokens); err != nil {
			return nil, fmt.Errorf("unmarshal tokens: %w", err)
		}
	}
	return &up, nil
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}

func (repo *UserProviderRepo) Get(ctx context.Context, id string) (*entity.UserProvider, error) {
	defer observe("get_user_provider", time.Now())

	const query = `
SELECT ` + userProviderColumns + `
FROM user_providers
WHERE id = $1
LIMIT 1`
	up, err := scanUserProvider(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return up, nil
}

func (repo *UserProviderRepo) ListPollable(ctx context.Context) ([]*entity.UserProvider, error) {
	defer observe("list_user_providers", time.Now())

	const query = `
SELECT ` + userProviderColumns + `
FROM user_providers
WHERE needs_reauth = FALSE
ORDER BY last_polled_at ASC NULLS FIRST, id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListPollable: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collect(rows, "ListPollable")
}

func (repo *UserProviderRepo) ListByUser(ctx context.Context, userID string) ([]*entity.UserProvider, error) {
	defer observe("list_user_providers_by_user", time.Now())

	const query = `
SELECT ` + userProviderColumns + `
FROM user_providers
WHERE user_id = $1
ORDER BY sort_order ASC, date_added ASC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collect(rows, "ListByUser")
}

func collect(rows *sql.Rows, op string) ([]*entity.UserProvider, error) {
	ups := make([]*entity.UserProvider, 0, 16)
	for rows.Next() {
		up, err := scanUserProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ups = append(ups, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ups, nil
}

// Save inserts up or, when the same external account is linked again,
// replaces its metadata and tokens and clears any re-authorization flag.
// up.ID is set to the stored id.
func (repo *UserProviderRepo) Save(ctx context.Context, up *entity.UserProvider) error {
	defer observe("save_user_provider", time.Now())

	var accountJSON []byte
	if up.Account != nil {
		var err error
		if accountJSON, err = json.Marshal(up.Account); err != nil {
			return fmt.Errorf("Save: marshal account: %w", err)
		}
	}
	tokensJSON, err := json.Marshal(up.Tokens)
	if err != nil {
		return fmt.Errorf("Save: marshal tokens: %w", err)
	}
	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	if up.DateAdded.IsZero() {
		up.DateAdded = time.Now().UTC()
	}

	const query = `
INSERT INTO user_providers (id, user_id, provider, provider_user_id, account, tokens, sort_order, date_added)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, provider, provider_user_id) DO UPDATE SET
       account      = EXCLUDED.account,
       tokens       = EXCLUDED.tokens,
       needs_reauth = FALSE,
       reauth_code  = NULL
RETURNING id`
	err = repo.db.QueryRowContext(ctx, query,
		up.ID, up.UserID, string(up.Provider), up.ProviderUserID,
		accountJSON, tokensJSON, up.Order, up.DateAdded,
	).Scan(&up.ID)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *UserProviderRepo) Delete(ctx context.Context, id, userID string) error {
	defer observe("delete_user_provider", time.Now())

	const query = `DELETE FROM user_providers WHERE id = $1 AND user_id = $2`
	return repo.execOne(ctx, "Delete", query, id, userID)
}

// UpdateTokens stores refreshed credentials. It implements provider.TokenUpdater.
func (repo *UserProviderRepo) UpdateTokens(ctx context.Context, id string, tokens entity.Tokens) error {
	defer observe("update_tokens", time.Now())

	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("UpdateTokens: marshal tokens: %w", err)
	}
	const query = `UPDATE user_providers SET tokens = $1, needs_reauth = FALSE, reauth_code = NULL WHERE id = $2`
	return repo.execOne(ctx, "UpdateTokens", query, tokensJSON, id)
}

// MarkNeedsReauth takes the account out of polling until it is linked again.
func (repo *UserProviderRepo) MarkNeedsReauth(ctx context.Context, id string, code int) error {
	defer observe("mark_needs_reauth", time.Now())

	const query = `UPDATE user_providers SET needs_reauth = TRUE, reauth_code = $1 WHERE id = $2`
	return repo.execOne(ctx, "MarkNeedsReauth", query, code, id)
}

func (repo *UserProviderRepo) TouchPolledAt(ctx context.Context, id string, t time.Time) error {
	defer observe("touch_polled_at", time.Now())

	const query = `UPDATE user_providers SET last_polled_at = $1 WHERE id = $2`
	_, err := repo.db.ExecContext(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("TouchPolledAt: %w", err)
	}
	return nil
}

func (repo *UserProviderRepo) Cursor(ctx context.Context, id string, kind repository.CursorKind) (repository.Cursor, error) {
	defer observe("get_cursor", time.Now())

	const query = `SELECT since, seen_ids FROM poll_cursors WHERE user_provider_id = $1 AND kind = $2`
	var (
		c       repository.Cursor
		seenRaw []byte
	)
	err := repo.db.QueryRowContext(ctx, query, id, string(kind)).Scan(&c.Since, &seenRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Cursor{}, nil
	}
	if err != nil {
		return repository.Cursor{}, fmt.Errorf("Cursor: %w", err)
	}
	if len(seenRaw) > 0 {
		if err := json.Unmarshal(seenRaw, &c.SeenIDs); err != nil {
			return repository.Cursor{}, fmt.Errorf("Cursor: decode seen ids: %w", err)
		}
	}
	return c, nil
}

func (repo *UserProviderRepo) SaveCursor(ctx context.Context, id string, kind repository.CursorKind, c repository.Cursor) error {
	defer observe("save_cursor", time.Now())

	seen := c.SeenIDs
	if seen == nil {
		seen = []string{}
	}
	seenJSON, err := json.Marshal(seen)
	if err != nil {
		return fmt.Errorf("SaveCursor: encode seen ids: %w", err)
	}

	const query = `
INSERT INTO poll_cursors (user_provider_id, kind, since, seen_ids, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_provider_id, kind) DO UPDATE SET
       since      = EXCLUDED.since,
       seen_ids   = EXCLUDED.seen_ids,
       updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, query, id, string(kind), c.Since, seenJSON); err != nil {
		return fmt.Errorf("SaveCursor: %w", err)
	}
	return nil
}

func (repo *UserProviderRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
