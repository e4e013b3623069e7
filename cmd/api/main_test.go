package main

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return conn
}

func TestGormStore(t *testing.T) {
	t.Run("migrates and builds the set", func(t *testing.T) {
		conn := openSQLite(t)
		repos, err := gormStore(conn)
		require.NoError(t, err)
		assert.NotNil(t, repos.Payments)
		assert.True(t, conn.Migrator().HasTable("payments"))
	})

	t.Run("migration failure stops startup", func(t *testing.T) {
		conn := openSQLite(t)
		sqlDB, err := conn.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		repos, err := gormStore(conn)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auto migrate")
		assert.Nil(t, repos)
	})
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("index failure stops startup", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on book_courier to execute command createIndexes",
		}))

		repos, err := mongoStore(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "payments.transactionId")
		assert.Nil(mt, repos)
	})

	mt.Run("indexes created", func(mt *mtest.T) {
		for i := 0; i < 7; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}
		repos, err := mongoStore(context.Background(), mt.DB)
		require.NoError(mt, err)
		assert.NotNil(mt, repos.Payments)
	})
}
