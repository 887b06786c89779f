package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

type memberRow struct {
	ID        int32     `db:"id"`
	Name      string    `db:"name"`
	UserType  string    `db:"user_type"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type memberRepository struct {
	db sqlx.ExtContext
}

func NewMemberRepository(db sqlx.ExtContext) repository.MemberRepository {
	return &memberRepository{db: db}
}

const selectMemberQuery = `SELECT id, name, user_type, status, created_at FROM members WHERE id = $1 AND deleted_at IS NULL`

func (r *memberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	return r.get(ctx, selectMemberQuery, id)
}

func (r *memberRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Member, error) {
	return r.get(ctx, selectMemberQuery+` FOR UPDATE`, id)
}

func (r *memberRepository) get(ctx context.Context, query string, id int32) (*domain.Member, error) {
	var row memberRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return &domain.Member{
		ID:        row.ID,
		Name:      row.Name,
		Type:      domain.MemberType(row.UserType),
		Status:    domain.MemberStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}, nil
}

type staffRepository struct {
	db sqlx.ExtContext
}

func NewStaffRepository(db sqlx.ExtContext) repository.StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Exists(ctx context.Context, id int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM staff WHERE id = $1 AND deleted_at IS NULL)`
	if err := sqlx.GetContext(ctx, r.db, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
