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

type bookRow struct {
	ID          int32     `db:"id"`
	Title       string    `db:"title"`
	Author      string    `db:"author"`
	ReaderGroup string    `db:"reader_group"`
	BookLimit   int32     `db:"book_limit"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r bookRow) toDomain() *domain.Book {
	return &domain.Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		ReaderGroup: domain.ReaderGroup(r.ReaderGroup),
		BookLimit:   r.BookLimit,
		Status:      domain.BookStatus(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

type bookRepository struct {
	db sqlx.ExtContext
}

func NewBookRepository(db sqlx.ExtContext) repository.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByID(ctx context.Context, id int32) (*domain.Book, error) {
	var row bookRow
	query := `SELECT id, title, author, reader_group, book_limit, status, created_at FROM books WHERE id = $1 AND deleted_at IS NULL`
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: book %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return row.toDomain(), nil
}
