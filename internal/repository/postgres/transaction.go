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

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const transactionColumnList = `id, member_id, book_id, book_copy_id, staff_id, return_staff_id, state, created_at, borrow_date, due_date, return_date, fine_amount, notes, deleted_at`

var transactionColumns = []interface{}{
	"id", "member_id", "book_id", "book_copy_id", "staff_id", "return_staff_id", "state",
	"created_at", "borrow_date", "due_date", "return_date", "fine_amount", "notes", "deleted_at",
}

type transactionRow struct {
	ID            int32         `db:"id"`
	MemberID      int32         `db:"member_id"`
	BookID        int32         `db:"book_id"`
	BookCopyID    int32         `db:"book_copy_id"`
	StaffID       sql.NullInt32 `db:"staff_id"`
	ReturnStaffID sql.NullInt32 `db:"return_staff_id"`
	State         string        `db:"state"`
	CreatedAt     time.Time     `db:"created_at"`
	BorrowDate    sql.NullTime  `db:"borrow_date"`
	DueDate       sql.NullTime  `db:"due_date"`
	ReturnDate    sql.NullTime  `db:"return_date"`
	FineAmount    int32         `db:"fine_amount"`
	Notes         string        `db:"notes"`
	DeletedAt     sql.NullTime  `db:"deleted_at"`
}

// columnState is the state implied by the nullable columns alone.
func (r transactionRow) columnState() domain.TransactionState {
	switch {
	case r.DeletedAt.Valid:
		return domain.TransactionStateCancelled
	case r.ReturnDate.Valid:
		return domain.TransactionStateReturned
	case r.BorrowDate.Valid:
		return domain.TransactionStateBorrowed
	default:
		return domain.TransactionStatePending
	}
}

func (r transactionRow) toDomain() (*domain.Transaction, error) {
	state := domain.TransactionState(r.State)
	if implied := r.columnState(); implied != state {
		return nil, fmt.Errorf("%w: transaction %d stored as %s but columns say %s", domain.ErrStateConflict, r.ID, state, implied)
	}

	t := &domain.Transaction{
		ID:         r.ID,
		MemberID:   r.MemberID,
		BookID:     r.BookID,
		BookCopyID: r.BookCopyID,
		State:      state,
		CreatedAt:  r.CreatedAt.UTC(),
		Notes:      r.Notes,
	}
	if r.BorrowDate.Valid && r.DueDate.Valid {
		t.Loan = &domain.Loan{
			StaffID:    r.StaffID.Int32,
			BorrowDate: r.BorrowDate.Time.UTC(),
			DueDate:    r.DueDate.Time.UTC(),
		}
	}
	if r.ReturnDate.Valid {
		t.Return = &domain.Return{
			StaffID:    r.ReturnStaffID.Int32,
			ReturnDate: r.ReturnDate.Time.UTC(),
			FineAmount: r.FineAmount,
		}
	}
	if r.DeletedAt.Valid {
		cancelledAt := r.DeletedAt.Time.UTC()
		t.CancelledAt = &cancelledAt
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func newTransactionRow(t *domain.Transaction) transactionRow {
	row := transactionRow{
		ID:         t.ID,
		MemberID:   t.MemberID,
		BookID:     t.BookID,
		BookCopyID: t.BookCopyID,
		State:      string(t.State),
		CreatedAt:  t.CreatedAt,
		Notes:      t.Notes,
	}
	if t.Loan != nil {
		row.StaffID = sql.NullInt32{Int32: t.Loan.StaffID, Valid: true}
		row.BorrowDate = sql.NullTime{Time: t.Loan.BorrowDate, Valid: true}
		row.DueDate = sql.NullTime{Time: t.Loan.DueDate, Valid: true}
	}
	if t.Return != nil {
		row.ReturnStaffID = sql.NullInt32{Int32: t.Return.StaffID, Valid: true}
		row.ReturnDate = sql.NullTime{Time: t.Return.ReturnDate, Valid: true}
		row.FineAmount = t.Return.FineAmount
	}
	if t.CancelledAt != nil {
		row.DeletedAt = sql.NullTime{Time: *t.CancelledAt, Valid: true}
	}
	return row
}

func toDomainList(rows []transactionRow) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, nil
}

type transactionRepository struct {
	db sqlx.ExtContext
}

func NewTransactionRepository(db sqlx.ExtContext) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	row := newTransactionRow(t)
	query := `INSERT INTO borrow_transactions (member_id, book_id, book_copy_id, state, created_at, notes)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := sqlx.GetContext(ctx, r.db, &t.ID, query, row.MemberID, row.BookID, row.BookCopyID, row.State, row.CreatedAt, row.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: copy %d already has an open record", domain.ErrNoCopyAvailable, t.BookCopyID)
		}
		return err
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumnList + ` FROM borrow_transactions WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *transactionRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumnList + ` FROM borrow_transactions WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *transactionRepository) get(ctx context.Context, query string, id int32) (*domain.Transaction, error) {
	var row transactionRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	row := newTransactionRow(t)
	query := `UPDATE borrow_transactions
	          SET state = $1, staff_id = $2, borrow_date = $3, due_date = $4, return_date = $5, return_staff_id = $6, fine_amount = $7, deleted_at = $8, notes = $9
	          WHERE id = $10`
	res, err := r.db.ExecContext(ctx, query, row.State, row.StaffID, row.BorrowDate, row.DueDate, row.ReturnDate, row.ReturnStaffID, row.FineAmount, row.DeletedAt, row.Notes, row.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, t.ID)
	}
	return nil
}

func (r *transactionRepository) CountOpenByMember(ctx context.Context, memberID int32) (int32, error) {
	var count int32
	query := `SELECT COUNT(*) FROM borrow_transactions WHERE member_id = $1 AND deleted_at IS NULL AND return_date IS NULL`
	if err := sqlx.GetContext(ctx, r.db, &count, query, memberID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *transactionRepository) HasPendingReservation(ctx context.Context, memberID, bookID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM borrow_transactions WHERE member_id = $1 AND book_id = $2 AND borrow_date IS NULL AND deleted_at IS NULL)`
	if err := sqlx.GetContext(ctx, r.db, &exists, query, memberID, bookID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *transactionRepository) ListPending(ctx context.Context, filter domain.ReservationFilter) ([]domain.Transaction, int32, error) {
	ds := dialect.From("borrow_transactions").Prepared(true).
		Where(goqu.C("borrow_date").IsNull(), goqu.C("deleted_at").IsNull())
	if filter.MemberID != nil {
		ds = ds.Where(goqu.C("member_id").Eq(*filter.MemberID))
	}

	page := ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(filter.Limit)).Offset(pageOffset(filter.Page, filter.Limit))
	return r.listPage(ctx, "list_pending", ds, page)
}

func (r *transactionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumnList + ` FROM borrow_transactions
	          WHERE borrow_date IS NULL AND deleted_at IS NULL AND created_at <= $1
	          ORDER BY created_at, id`
	logger.DatabaseCall("list_expired_pending", "borrow_transactions", "cutoff", cutoff)

	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, cutoff); err != nil {
		logger.DatabaseResult("list_expired_pending", 0, err)
		return nil, err
	}
	logger.DatabaseResult("list_expired_pending", int64(len(rows)), nil)
	return toDomainList(rows)
}

func (r *transactionRepository) ListOpenLoans(ctx context.Context, filter domain.LoanFilter, now time.Time) ([]domain.Transaction, int32, error) {
	ds := dialect.From("borrow_transactions").Prepared(true).
		Where(
			goqu.C("borrow_date").IsNotNull(),
			goqu.C("return_date").IsNull(),
			goqu.C("deleted_at").IsNull(),
		)
	if filter.MemberID != nil {
		ds = ds.Where(goqu.C("member_id").Eq(*filter.MemberID))
	}
	switch filter.Status {
	case domain.LoanStatusOverdue:
		ds = ds.Where(goqu.C("due_date").Lt(now))
	case domain.LoanStatusBorrowed:
		ds = ds.Where(goqu.C("due_date").Gte(now))
	}

	page := ds.Order(goqu.C("due_date").Asc(), goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).Offset(pageOffset(filter.Page, filter.Limit))
	return r.listPage(ctx, "list_open_loans", ds, page)
}

// listPage runs the count over filtered and the select over page, which is
// filtered plus ordering and limits.
func (r *transactionRepository) listPage(ctx context.Context, op string, filtered, page *goqu.SelectDataset) ([]domain.Transaction, int32, error) {
	countSQL, countArgs, err := filtered.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s count: %w", op, err)
	}
	var total int32
	if err := sqlx.GetContext(ctx, r.db, &total, countSQL, countArgs...); err != nil {
		return nil, 0, err
	}

	listSQL, args, err := page.Select(transactionColumns...).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s: %w", op, err)
	}
	logger.DatabaseCall(op, "borrow_transactions", "args", args)

	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, listSQL, args...); err != nil {
		logger.DatabaseResult(op, 0, err)
		return nil, 0, err
	}
	logger.DatabaseResult(op, int64(len(rows)), nil)

	txs, err := toDomainList(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}
