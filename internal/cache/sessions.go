package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pairplay/sync-server-go/internal/model"
)

// Entry is one cached session snapshot plus its push bookkeeping. A pending
// entry has locally-applied mutations not yet confirmed by the remote store.
type Entry struct {
	Session   *model.Session
	PushState model.PushState
}

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*Entry, error)
	FindByPairKind(ctx context.Context, pairKey string, kind model.Kind) ([]Entry, error)
	FindActiveByPairKind(ctx context.Context, pairKey string, kind model.Kind) ([]Entry, error)
	FindByPairKey(ctx context.Context, pairKey string) ([]Entry, error)
	FindByPairKindDay(ctx context.Context, pairKey string, kind model.Kind, day string) (*Entry, error)
	Save(ctx context.Context, session *model.Session, push model.PushState) error
	MarkSynced(ctx context.Context, id string, revision int) error
	Delete(ctx context.Context, id string) error
	ListOverdue(ctx context.Context, now time.Time) ([]Entry, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRow struct {
	ID        string `db:"id"`
	PairKey   string `db:"pair_key"`
	Kind      string `db:"kind"`
	Status    string `db:"status"`
	Day       string `db:"day"`
	Revision  int    `db:"revision"`
	PushState string `db:"push_state"`
	ExpiresAt int64  `db:"expires_at"`
	CreatedAt int64  `db:"created_at"`
	Snapshot  string `db:"snapshot"`
}

type sessionRepo struct {
	db DBTX
}

func NewSessionRepository(db *DB) SessionRepository {
	return &sessionRepo{db: db.DB}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) decode(row sessionRow) (*Entry, error) {
	var session model.Session
	if err := json.Unmarshal([]byte(row.Snapshot), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", row.ID, err)
	}
	// Store boundary: never hand an invalid tagged union to the engine.
	if err := session.State.Validate(); err != nil {
		return nil, fmt.Errorf("cached session %s: %w", row.ID, err)
	}
	return &Entry{Session: &session, PushState: model.PushState(row.PushState)}, nil
}

func (r *sessionRepo) decodeAll(rows []sessionRow) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*Entry, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sessions WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.decode(row)
}

func (r *sessionRepo) FindByPairKind(ctx context.Context, pairKey string, kind model.Kind) ([]Entry, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sessions
		WHERE pair_key = ? AND kind = ?
		ORDER BY created_at
	`, pairKey, string(kind))
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows)
}

func (r *sessionRepo) FindActiveByPairKind(ctx context.Context, pairKey string, kind model.Kind) ([]Entry, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sessions
		WHERE pair_key = ? AND kind = ? AND status IN ('active', 'yielded')
		ORDER BY created_at
	`, pairKey, string(kind))
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows)
}

func (r *sessionRepo) FindByPairKey(ctx context.Context, pairKey string) ([]Entry, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sessions
		WHERE pair_key = ?
		ORDER BY created_at
	`, pairKey)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows)
}

func (r *sessionRepo) FindByPairKindDay(ctx context.Context, pairKey string, kind model.Kind, day string) (*Entry, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM sessions
		WHERE pair_key = ? AND kind = ? AND day = ?
		ORDER BY created_at LIMIT 1
	`, pairKey, string(kind), day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.decode(row)
}

func (r *sessionRepo) Save(ctx context.Context, session *model.Session, push model.PushState) error {
	snapshot, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, pair_key, kind, status, day, revision, push_state, expires_at, created_at, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			revision = excluded.revision,
			push_state = excluded.push_state,
			expires_at = excluded.expires_at,
			snapshot = excluded.snapshot
	`, session.ID, session.PairKey, string(session.Kind), string(session.Status),
		session.Day(), session.Revision, string(push),
		session.ExpiresAt.Unix(), session.CreatedAt.Unix(), string(snapshot))
	return err
}

func (r *sessionRepo) MarkSynced(ctx context.Context, id string, revision int) error {
	// Revision-guarded: a newer local mutation keeps the entry pending.
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET push_state = 'synced'
		WHERE id = ? AND revision = ?
	`, id, revision)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id = ?
	`, id)
	return err
}

func (r *sessionRepo) ListOverdue(ctx context.Context, now time.Time) ([]Entry, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM sessions
		WHERE status IN ('active', 'yielded') AND expires_at < ?
	`, now.Unix())
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows)
}
