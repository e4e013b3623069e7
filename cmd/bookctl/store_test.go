package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreMongoErrorIsPrefixedOnce(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:     config.StoreMongo,
		MongoURI:        "bogus://localhost",
		MongoDatabase:   "book_courier",
		UpstreamTimeout: time.Second,
	}
	st, err := openStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, st)
	assert.Equal(t, 1, strings.Count(err.Error(), "connect mongo"), err.Error())
}
