package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/tasktrail/internal/config"
	boltInfra "github.com/fastygo/tasktrail/internal/infrastructure/bolt"
	firestoreInfra "github.com/fastygo/tasktrail/internal/infrastructure/firestore"
	pgInfra "github.com/fastygo/tasktrail/internal/infrastructure/postgres"
	"github.com/fastygo/tasktrail/repository"
	boltRepo "github.com/fastygo/tasktrail/repository/bolt"
	firestoreRepo "github.com/fastygo/tasktrail/repository/firestore"
	pgRepo "github.com/fastygo/tasktrail/repository/postgres"
)

// documentStore is the opened backend selected by STORE_DRIVER.
type documentStore struct {
	tasks repository.TaskRepository
	users repository.UserStore
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*documentStore, error) {
	switch cfg.Store.Driver {
	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		logger.Info("using embedded store", zap.String("path", cfg.Bolt.Path))
		return &documentStore{
			tasks: boltRepo.NewTaskRepository(db),
			users: boltRepo.NewUserRepository(db),
			ping:  func(context.Context) error { return boltInfra.Ping(db) },
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg.Migrations, cfg.Database.URL, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, cfg.AppName, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &documentStore{
			tasks: pgRepo.NewTaskRepository(pool),
			users: pgRepo.NewUserRepository(pool),
			ping:  pool.Ping,
			close: func(context.Context) error { pool.Close(); return nil },
		}, nil

	case config.DriverFirestore:
		client, err := firestoreInfra.NewClient(ctx, cfg.Firestore, logger)
		if err != nil {
			return nil, err
		}
		return &documentStore{
			tasks: firestoreRepo.NewTaskRepository(client),
			users: firestoreRepo.NewUserRepository(client),
			ping:  func(ctx context.Context) error { return firestoreInfra.Ping(ctx, client) },
			close: func(context.Context) error { return client.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
