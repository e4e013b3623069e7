package main

import (
	"context"
	"fmt"

	"github.com/shinyyama/book-courier-backend/internal/config"
	"github.com/shinyyama/book-courier-backend/internal/db"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"github.com/shinyyama/book-courier-backend/internal/repository/mongorepo"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// store holds whichever backend STORE_DRIVER selected.
type store struct {
	repos *repository.Set
	gorm  *gorm.DB
	mongo *mongo.Database
	close func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	cctx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
	defer cancel()

	if cfg.StoreDriver == config.StoreMongo {
		client, database, err := db.ConnectMongo(cctx, cfg)
		if err != nil {
			return nil, err
		}
		return &store{
			repos: mongorepo.NewSet(database),
			mongo: database,
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	conn, err := db.Connect(cctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	return &store{
		repos: repository.NewGormSet(conn),
		gorm:  conn,
		close: func() { _ = sqlDB.Close() },
	}, nil
}

// migrate creates tables or indexes for the open backend.
func (s *store) migrate(ctx context.Context) error {
	if s.mongo != nil {
		return mongorepo.EnsureIndexes(ctx, s.mongo)
	}
	return db.Migrate(s.gorm)
}

func loadStore(ctx context.Context) (*config.Config, *store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}
