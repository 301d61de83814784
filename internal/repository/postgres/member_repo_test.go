package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"memberaccounts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberColumns = []string{"id", "email", "name", "phone", "status", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (domain.MemberRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewMemberRepository(db), mock, func() { db.Close() }
}

func TestMemberRepository_Save_Insert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success assigns id",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO members`).
					WithArgs("a@x.com", "A", "555", domain.StatusActive, now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
			},
		},
		{
			name: "unique violation returns ErrMemberExists",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO members`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "members_email_key"})
			},
			wantErr: true,
			errIs:   domain.ErrMemberExists,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO members`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, closeDB := newMockRepo(t)
			defer closeDB()
			tt.mock(mock)

			m := &domain.Member{Email: "a@x.com", Name: "A", Phone: "555", Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now}
			saved, err := repo.Save(ctx, m)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(1), saved.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMemberRepository_Save_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE members`).
					WithArgs("A", "555", domain.StatusDormant, now, int64(1)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "zero rows affected surfaces sql.ErrNoRows",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE members`).
					WithArgs("A", "555", domain.StatusDormant, now, int64(1)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errIs:   sql.ErrNoRows,
		},
		{
			name: "serialization failure returns ErrConcurrentUpdate",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE members`).
					WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
			},
			wantErr: true,
			errIs:   domain.ErrConcurrentUpdate,
		},
		{
			name: "deadlock returns ErrConcurrentUpdate",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE members`).
					WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
			},
			wantErr: true,
			errIs:   domain.ErrConcurrentUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, closeDB := newMockRepo(t)
			defer closeDB()
			tt.mock(mock)

			m := &domain.Member{ID: 1, Email: "a@x.com", Name: "A", Phone: "555", Status: domain.StatusDormant, UpdatedAt: now}
			_, err := repo.Save(ctx, m)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMemberRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectQuery(`SELECT (.+) FROM members`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(memberColumns).
				AddRow(int64(1), "a@x.com", "A", "555", "active", now, now))

		m, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ID)
		assert.Equal(t, "a@x.com", m.Email)
		assert.Equal(t, domain.StatusActive, m.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found returns sql.ErrNoRows", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectQuery(`SELECT (.+) FROM members`).
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 42)
		require.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()
	mock.ExpectQuery(`SELECT (.+) FROM members`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(int64(1), "a@x.com", "A", "", "active", now, now))

	m, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", m.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("page of members id descending", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectQuery(`SELECT (.+) FROM members`).
			WithArgs(2, 0).
			WillReturnRows(sqlmock.NewRows(memberColumns).
				AddRow(int64(5), "e@x.com", "E", "", "active", now, now).
				AddRow(int64(4), "d@x.com", "D", "", "active", now, now))

		page, err := repo.List(ctx, domain.PaginationParams{Page: 0, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page.Members, 2)
		assert.Equal(t, int64(5), page.Members[0].ID)
		assert.Equal(t, int64(4), page.Members[1].ID)
		assert.Equal(t, 5, page.Total)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("out-of-range page is empty", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectQuery(`SELECT (.+) FROM members`).
			WithArgs(2, 20).
			WillReturnRows(sqlmock.NewRows(memberColumns))

		page, err := repo.List(ctx, domain.PaginationParams{Page: 10, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Members)
		assert.Equal(t, 5, page.Total)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectExec(`DELETE FROM members`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, &domain.Member{ID: 1}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected surfaces sql.ErrNoRows", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectExec(`DELETE FROM members`).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.Delete(ctx, &domain.Member{ID: 42}), sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_InTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("commits on success", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO members`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit()

		err := repo.InTx(ctx, domain.TxDefault, func(r domain.MemberRepository) error {
			_, err := r.Save(ctx, &domain.Member{Email: "a@x.com", Name: "A", Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now})
			return err
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectBegin()
		mock.ExpectRollback()

		sentinel := errors.New("business rule failed")
		err := repo.InTx(ctx, domain.TxDefault, func(r domain.MemberRepository) error {
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serializable commit failure returns ErrConcurrentUpdate", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

		err := repo.InTx(ctx, domain.TxSerializable, func(r domain.MemberRepository) error {
			return nil
		})
		require.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transaction-bound repository joins the current transaction", func(t *testing.T) {
		repo, mock, closeDB := newMockRepo(t)
		defer closeDB()
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM members`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(memberColumns).
				AddRow(int64(1), "a@x.com", "A", "", "active", now, now))
		mock.ExpectCommit()

		err := repo.InTx(ctx, domain.TxReadOnly, func(r domain.MemberRepository) error {
			// Nested InTx must not open a second transaction.
			return r.InTx(ctx, domain.TxReadOnly, func(inner domain.MemberRepository) error {
				_, err := inner.GetByID(ctx, 1)
				return err
			})
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
