//go:build integration

package postgres_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"libraryhub-backend/internal/clock"
	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/repository/postgres"
	"libraryhub-backend/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "../../../config/config.test.yaml", "path to config file")
}

func prepareDB(t *testing.T) *sqlx.DB {
	if !flag.Parsed() {
		flag.Parse()
	}

	finalPath := configPath
	if _, err := os.Stat(finalPath); os.IsNotExist(err) {
		altPath := filepath.Join("..", "..", "..", "config", "config.dev.yaml")
		if _, err := os.Stat(altPath); err == nil {
			finalPath = altPath
		}
	}

	cfg, err := config.Load(finalPath)
	require.NoError(t, err, "load config from %s", finalPath)

	ctx := context.Background()
	var db *sqlx.DB
	// Retry connection as DB might still be starting up
	for i := 0; i < 10; i++ {
		db, err = postgres.Open(ctx, cfg.Database.Driver, cfg.GetDatabaseConnectionString(), postgres.PoolOptions{MaxOpenConns: 10})
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	require.NoError(t, err, "connect to database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	return db
}

func seedFixture(t *testing.T, db *sqlx.DB, copies int) *postgres.SeedResult {
	shelves := make([]string, copies)
	for i := range shelves {
		shelves[i] = fmt.Sprintf("IT-%d", i+1)
	}
	res, err := postgres.Seed(context.Background(), db, &postgres.Catalog{
		Members: []postgres.SeedMember{{Name: t.Name(), Type: "citizen"}},
		Staff:   []postgres.SeedStaff{{Name: t.Name()}},
		Books:   []postgres.SeedBook{{Title: t.Name(), BookLimit: int32(copies + 1), Copies: shelves}},
	})
	require.NoError(t, err)
	return res
}

func copyStatus(t *testing.T, db *sqlx.DB, id int32) domain.CopyStatus {
	var status domain.CopyStatus
	require.NoError(t, db.GetContext(context.Background(), &status, "SELECT status FROM book_copies WHERE id = $1", id))
	return status
}

func TestIntegration_ReserveBorrowReturn(t *testing.T) {
	db := prepareDB(t)
	fx := seedFixture(t, db, 1)
	store := postgres.NewStore(db)
	clk := clock.NewManual(time.Now().UTC().Truncate(time.Second))
	policy := service.DefaultPolicy()
	reservations := service.NewReservationService(store, clk, policy)
	borrows := service.NewBorrowService(store, clk, policy)
	ctx := context.Background()

	res, err := reservations.CreateReservation(ctx, fx.MemberIDs[0], fx.BookIDs[0])
	require.NoError(t, err)
	assert.Equal(t, fx.CopyIDs[0], res.BookCopyID)

	_, err = reservations.CreateReservation(ctx, fx.MemberIDs[0], fx.BookIDs[0])
	assert.ErrorIs(t, err, domain.ErrDuplicateReservation)

	loan, err := borrows.ConfirmBorrow(ctx, res.ID, fx.StaffIDs[0], 14)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStateBorrowed, loan.State)

	clk.Advance(16 * 24 * time.Hour)
	returned, err := borrows.RecordReturn(ctx, res.ID, fx.StaffIDs[0], nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), returned.Return.FineAmount)

	assert.Equal(t, domain.CopyStatusAvailable, copyStatus(t, db, fx.CopyIDs[0]))
}

func TestIntegration_ConcurrentReservationsClaimDistinctCopies(t *testing.T) {
	db := prepareDB(t)
	fx := seedFixture(t, db, 3)
	store := postgres.NewStore(db)
	clk := clock.NewManual(time.Now().UTC())

	var members []int32
	for i := 0; i < 4; i++ {
		res, err := postgres.Seed(context.Background(), db, &postgres.Catalog{
			Members: []postgres.SeedMember{{Name: fmt.Sprintf("%s-%d", t.Name(), i), Type: "citizen"}},
		})
		require.NoError(t, err)
		members = append(members, res.MemberIDs[0])
	}

	reservations := service.NewReservationService(store, clk, service.DefaultPolicy())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed = map[int32]bool{}
		failed  []error
	)
	for _, memberID := range members {
		wg.Add(1)
		go func(memberID int32) {
			defer wg.Done()
			res, err := reservations.CreateReservation(context.Background(), memberID, fx.BookIDs[0])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, err)
				return
			}
			claimed[res.BookCopyID] = true
		}(memberID)
	}
	wg.Wait()

	assert.Len(t, claimed, 3)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], domain.ErrNoCopyAvailable)
}

func TestIntegration_SweepReleasesLapsedReservation(t *testing.T) {
	db := prepareDB(t)
	fx := seedFixture(t, db, 1)
	store := postgres.NewStore(db)
	clk := clock.NewManual(time.Now().UTC())
	reservations := service.NewReservationService(store, clk, service.DefaultPolicy())
	ctx := context.Background()

	res, err := reservations.CreateReservation(ctx, fx.MemberIDs[0], fx.BookIDs[0])
	require.NoError(t, err)

	clk.Advance(25 * time.Hour)
	report, err := reservations.SweepExpired(ctx)
	require.NoError(t, err)

	var swept bool
	for _, s := range report.Cleaned {
		if s.TransactionID == res.ID {
			swept = true
		}
	}
	assert.True(t, swept)

	assert.Equal(t, domain.CopyStatusAvailable, copyStatus(t, db, fx.CopyIDs[0]))
}
