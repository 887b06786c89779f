package app

import (
	"context"
	"fmt"

	"libraryhub-backend/internal/clock"
	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/repository"
	"libraryhub-backend/internal/repository/memory"
	"libraryhub-backend/internal/repository/postgres"
	"libraryhub-backend/internal/service"
)

// Services holds the circulation services shared by the server and the cronjob runner
type Services struct {
	Reservations service.ReservationService
	Borrows      service.BorrowService
}

// OpenStore opens the store selected by cfg.Database.Driver. The returned
// close func releases the connection pool and is safe to call on memory stores.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil

	case config.DriverPostgres, config.DriverPGX:
		logger.Info("Connecting to database...",
			"driver", cfg.Database.Driver,
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Database)

		db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.GetDatabaseConnectionString(), postgres.PoolOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime(),
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connection established")

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("Database schema applied")
		}

		return postgres.NewStore(db), func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// RequireDatabase rejects the memory driver for binaries that must act on the
// server's data, such as the cronjob runner and the catalog seeder.
func RequireDatabase(cfg *config.Config, binary string) error {
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("%s needs a PostgreSQL database: driver %q keeps data private to one process", binary, config.DriverMemory)
	}
	return nil
}

// NewServices wires the circulation services against store using the wall clock.
func NewServices(store repository.Store, cfg *config.Config) *Services {
	policy := service.PolicyFromConfig(&cfg.Library)
	clk := clock.System()
	return &Services{
		Reservations: service.NewReservationService(store, clk, policy),
		Borrows:      service.NewBorrowService(store, clk, policy),
	}
}
