package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"libraryhub-backend/internal/logger"
)

// Catalog is the fixture format read by cmd/seed.
type Catalog struct {
	Members []SeedMember `yaml:"members"`
	Staff   []SeedStaff  `yaml:"staff"`
	Books   []SeedBook   `yaml:"books"`
}

type SeedMember struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"user_type"`
	Status string `yaml:"status"`
}

type SeedStaff struct {
	Name string `yaml:"name"`
}

type SeedBook struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	ReaderGroup string   `yaml:"reader_group"`
	BookLimit   int32    `yaml:"book_limit"`
	Copies      []string `yaml:"copies"` // shelf locations, one per copy
}

// SeedResult holds the ids assigned to inserted rows, in catalog order.
type SeedResult struct {
	MemberIDs []int32
	StaffIDs  []int32
	BookIDs   []int32
	CopyIDs   []int32
}

// Seed inserts the catalog in one transaction.
func Seed(ctx context.Context, db *sqlx.DB, catalog *Catalog) (*SeedResult, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res := &SeedResult{}

	for _, m := range catalog.Members {
		status := m.Status
		if status == "" {
			status = "active"
		}
		id, err := insertReturningID(ctx, tx, "members", goqu.Record{"name": m.Name, "user_type": m.Type, "status": status})
		if err != nil {
			return nil, fmt.Errorf("insert member %q: %w", m.Name, err)
		}
		res.MemberIDs = append(res.MemberIDs, id)
	}

	for _, s := range catalog.Staff {
		id, err := insertReturningID(ctx, tx, "staff", goqu.Record{"name": s.Name})
		if err != nil {
			return nil, fmt.Errorf("insert staff %q: %w", s.Name, err)
		}
		res.StaffIDs = append(res.StaffIDs, id)
	}

	for _, b := range catalog.Books {
		limit := b.BookLimit
		if limit < 1 {
			limit = 1
		}
		group := b.ReaderGroup
		if group == "" {
			group = "general"
		}
		bookID, err := insertReturningID(ctx, tx, "books", goqu.Record{
			"title":        b.Title,
			"author":       b.Author,
			"reader_group": group,
			"book_limit":   limit,
		})
		if err != nil {
			return nil, fmt.Errorf("insert book %q: %w", b.Title, err)
		}
		res.BookIDs = append(res.BookIDs, bookID)

		for _, shelf := range b.Copies {
			copyID, err := insertReturningID(ctx, tx, "book_copies", goqu.Record{"book_id": bookID, "shelf_location": shelf})
			if err != nil {
				return nil, fmt.Errorf("insert copy of %q: %w", b.Title, err)
			}
			res.CopyIDs = append(res.CopyIDs, copyID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return res, nil
}

func insertReturningID(ctx context.Context, tx *sqlx.Tx, table string, row goqu.Record) (int32, error) {
	query, args, err := dialect.Insert(table).Rows(row).Returning("id").Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}

	logger.DatabaseCall("seed", table)
	var id int32
	err = tx.QueryRowxContext(ctx, query, args...).Scan(&id)
	logger.DatabaseResult("seed", 1, err, "table", table, "id", id)
	return id, err
}
