package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/book-courier-backend/internal/ai"
	"github.com/shinyyama/book-courier-backend/internal/checkout"
	"github.com/shinyyama/book-courier-backend/internal/config"
	"github.com/shinyyama/book-courier-backend/internal/db"
	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"github.com/shinyyama/book-courier-backend/internal/repository/mongorepo"
	"github.com/shinyyama/book-courier-backend/internal/server"
	"github.com/shinyyama/book-courier-backend/internal/storage"
	"github.com/shinyyama/book-courier-backend/internal/tracking"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store connect error: %v", err)
	}
	closers = append(closers, closeStore)

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Fatalf("identity init error: %v", err)
	}

	deps := server.Deps{
		Repos:    repos,
		Verifier: verifier,
		Provider: checkout.NewStripeProvider(cfg.StripeSecretKey, nil),
		Tracker:  tracking.NewGenerator(),
	}
	if cfg.StorageBucket != "" {
		covers, err := storage.NewCoverStore(ctx, cfg.StorageBucket, cfg.CredentialsFile)
		if err != nil {
			log.Printf("cover storage disabled: %v", err)
		} else {
			deps.Covers = covers
			closers = append(closers, func() { _ = covers.Close() })
		}
	}
	if cfg.GeminiAPIKey != "" {
		blurbs, err := ai.NewBlurbClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("blurb assistant disabled: %v", err)
		} else {
			deps.Blurbs = blurbs
		}
	}

	srv := server.New(cfg, deps)
	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s store=%s sha=%s", addr, cfg.StoreDriver, cfg.GitSHA)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Set, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, database, err := db.ConnectMongo(connectCtx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repos, err := mongoStore(connectCtx, database)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repos, closeFn, nil
	default:
		conn, err := db.Connect(connectCtx, cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = sqlDB.Close() }
		repos, err := gormStore(conn)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repos, closeFn, nil
	}
}

// mongoStore refuses to serve without the indexes. The unique index on
// payments.transactionId is what keeps racing confirmations to one payment.
func mongoStore(ctx context.Context, database *mongo.Database) (*repository.Set, error) {
	if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return mongorepo.NewSet(database), nil
}

func gormStore(conn *gorm.DB) (*repository.Set, error) {
	if err := db.Migrate(conn); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return repository.NewGormSet(conn), nil
}

// newVerifier prefers Firebase and falls back to HS256 tokens for local runs.
func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	if cfg.FirebaseProjectID != "" {
		return identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
	}
	if cfg.AuthJWTSecret != "" {
		log.Printf("FIREBASE_PROJECT_ID not set; accepting local HS256 tokens")
		return identity.NewJWTVerifier(cfg.AuthJWTSecret)
	}
	return nil, errors.New("set FIREBASE_PROJECT_ID or AUTH_JWT_SECRET")
}
