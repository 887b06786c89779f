package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

type copyRow struct {
	ID            int32     `db:"id"`
	BookID        int32     `db:"book_id"`
	Status        string    `db:"status"`
	ShelfLocation string    `db:"shelf_location"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r copyRow) toDomain() *domain.BookCopy {
	return &domain.BookCopy{
		ID:            r.ID,
		BookID:        r.BookID,
		Status:        domain.CopyStatus(r.Status),
		ShelfLocation: r.ShelfLocation,
		UpdatedAt:     r.UpdatedAt,
	}
}

type copyRepository struct {
	db sqlx.ExtContext
}

func NewCopyRepository(db sqlx.ExtContext) repository.CopyRepository {
	return &copyRepository{db: db}
}

// Concurrent claimers skip each other's locked rows instead of queueing
// behind them, so two reservations never receive the same copy.
const claimCopyQuery = `UPDATE book_copies SET status = $1, updated_at = $2
	WHERE id = (
		SELECT id FROM book_copies
		WHERE book_id = $3 AND status = $4 AND deleted_at IS NULL
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, book_id, status, shelf_location, updated_at`

func (r *copyRepository) ClaimAvailable(ctx context.Context, bookID int32, now time.Time) (*domain.BookCopy, error) {
	logger.DatabaseCall("claim", "book_copies", "book_id", bookID)

	var row copyRow
	err := sqlx.GetContext(ctx, r.db, &row, claimCopyQuery, domain.CopyStatusReserved, now, bookID, domain.CopyStatusAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.DatabaseResult("claim", 0, nil, "book_id", bookID)
			return nil, fmt.Errorf("%w: book %d", domain.ErrNoCopyAvailable, bookID)
		}
		logger.DatabaseResult("claim", 0, err)
		return nil, err
	}
	logger.DatabaseResult("claim", 1, nil, "copy_id", row.ID)
	return row.toDomain(), nil
}

func (r *copyRepository) TransitionStatus(ctx context.Context, copyID int32, from, to domain.CopyStatus, now time.Time) error {
	query := `UPDATE book_copies SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, now, copyID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: copy %d is not %s", domain.ErrStateConflict, copyID, from)
	}
	return nil
}
