package postgres_test

import (
	"context"
	"errors"
	"testing"

	"libraryhub-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idRow(id int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id)
}

func TestSeed(t *testing.T) {
	db, mock := newMockDB(t)
	catalog := &postgres.Catalog{
		Members: []postgres.SeedMember{{Name: "An", Type: "citizen"}},
		Staff:   []postgres.SeedStaff{{Name: "Binh"}},
		Books: []postgres.SeedBook{{
			Title:       "Dune",
			Author:      "Herbert",
			ReaderGroup: "education",
			BookLimit:   2,
			Copies:      []string{"A-1", "A-2"},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "members"`).WillReturnRows(idRow(1))
	mock.ExpectQuery(`INSERT INTO "staff"`).WillReturnRows(idRow(1))
	mock.ExpectQuery(`INSERT INTO "books"`).WillReturnRows(idRow(5))
	mock.ExpectQuery(`INSERT INTO "book_copies"`).WillReturnRows(idRow(10))
	mock.ExpectQuery(`INSERT INTO "book_copies"`).WillReturnRows(idRow(11))
	mock.ExpectCommit()

	res, err := postgres.Seed(context.Background(), db, catalog)
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, res.MemberIDs)
	assert.Equal(t, []int32{1}, res.StaffIDs)
	assert.Equal(t, []int32{5}, res.BookIDs)
	assert.Equal(t, []int32{10, 11}, res.CopyIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	catalog := &postgres.Catalog{
		Books: []postgres.SeedBook{{Title: "Dune", Copies: []string{"A-1"}}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "books"`).WillReturnRows(idRow(5))
	mock.ExpectQuery(`INSERT INTO "book_copies"`).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := postgres.Seed(context.Background(), db, catalog)
	assert.ErrorContains(t, err, `insert copy of "Dune"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
