// Package mongorepo implements the repository interfaces on MongoDB collections.
package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/book-courier-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	booksCollection    = "books"
	usersCollection    = "users"
	newBooksCollection = "new_books"
	ordersCollection   = "orders"
	paymentsCollection = "payments"
)

func NewSet(db *mongo.Database) *repository.Set {
	return &repository.Set{
		Books:    &bookRepository{coll: db.Collection(booksCollection)},
		Users:    &userRepository{coll: db.Collection(usersCollection)},
		NewBooks: &submissionRepository{coll: db.Collection(newBooksCollection)},
		Orders:   &orderRepository{coll: db.Collection(ordersCollection)},
		Payments: &paymentRepository{coll: db.Collection(paymentsCollection)},
	}
}

type indexSpec struct {
	coll   string
	field  string
	unique bool
}

// indexes lists the unique constraints the services rely on plus the lookup
// indexes for list endpoints. The payments unique index comes first so a
// store that refuses index creation fails on it.
var indexes = []indexSpec{
	{paymentsCollection, "transactionId", true},
	{paymentsCollection, "customerEmail", false},
	{usersCollection, "email", true},
	{ordersCollection, "buyerEmail", false},
	{ordersCollection, "librarianEmail", false},
	{booksCollection, "status", false},
	{newBooksCollection, "librarianEmail", false},
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, s := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: s.field, Value: 1}},
			Options: options.Index().SetUnique(s.unique),
		}
		if _, err := db.Collection(s.coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s.%s: %w", s.coll, s.field, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
	}
	return err
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}
