package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"memberaccounts/internal/domain"
)

// querier is the subset of *sql.DB / *sql.Tx the repository uses.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type memberRepository struct {
	db *sql.DB // nil when bound to a transaction
	q  querier
}

// NewMemberRepository returns a MemberRepository backed by the given database.
func NewMemberRepository(db *sql.DB) domain.MemberRepository {
	return &memberRepository{db: db, q: db}
}

func (r *memberRepository) Save(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	if m.ID == 0 {
		return r.insert(ctx, m)
	}
	return r.update(ctx, m)
}

func (r *memberRepository) insert(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	query := `
		INSERT INTO members (email, name, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, m.Email, m.Name, m.Phone, m.Status, m.CreatedAt, m.UpdatedAt).Scan(&m.ID)
	if err != nil {
		return nil, mapPQError(err)
	}
	return m, nil
}

// update never touches the email column: email is immutable after creation.
func (r *memberRepository) update(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	query := `
		UPDATE members
		SET name = $1, phone = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := r.q.ExecContext(ctx, query, m.Name, m.Phone, m.Status, m.UpdatedAt, m.ID)
	if err != nil {
		return nil, mapPQError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return m, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	query := `
		SELECT id, email, name, phone, status, created_at, updated_at
		FROM members
		WHERE id = $1
	`
	m := &domain.Member{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `
		SELECT id, email, name, phone, status, created_at, updated_at
		FROM members
		WHERE email = $1
	`
	m := &domain.Member{}
	err := r.q.QueryRowContext(ctx, query, email).Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) List(ctx context.Context, params domain.PaginationParams) (*domain.MemberPage, error) {
	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&total); err != nil {
		return nil, err
	}

	query := `
		SELECT id, email, name, phone, status, created_at, updated_at
		FROM members
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.q.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*domain.Member{}
	for rows.Next() {
		m := &domain.Member{}
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &domain.MemberPage{
		Members:  members,
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
	}, nil
}

func (r *memberRepository) Delete(ctx context.Context, m *domain.Member) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, m.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InTx runs fn inside a transaction at the given level. When the repository
// is already transaction-bound, fn joins the current transaction instead of
// opening a nested one.
func (r *memberRepository) InTx(ctx context.Context, level domain.TxLevel, fn func(repo domain.MemberRepository) error) error {
	if r.db == nil {
		return fn(r)
	}

	opts := &sql.TxOptions{}
	switch level {
	case domain.TxSerializable:
		opts.Isolation = sql.LevelSerializable
	case domain.TxReadOnly:
		opts.ReadOnly = true
	}

	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&memberRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		// A serializable transaction can fail at commit time.
		return mapPQError(err)
	}
	return nil
}

// mapPQError translates Postgres error codes to domain errors:
// unique violations on the email index become ErrMemberExists, and
// serialization failures or deadlocks become ErrConcurrentUpdate.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", domain.ErrMemberExists, pqErr.Constraint)
	case "40001", "40P01":
		return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, pqErr.Message)
	}
	return err
}
