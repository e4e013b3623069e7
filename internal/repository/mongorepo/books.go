package mongorepo

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookRepository struct {
	coll *mongo.Collection
}

func (r *bookRepository) Create(ctx context.Context, b *model.Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, b)
	return translate(err)
}

func (r *bookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	var b model.Book
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func bookFilter(f repository.BookFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.LibrarianEmail != "" {
		filter["librarianEmail"] = f.LibrarianEmail
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"author": pattern}}
	}
	return filter
}

func (r *bookRepository) List(ctx context.Context, f repository.BookFilter) ([]model.Book, int64, error) {
	filter := bookFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	books := []model.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) Update(ctx context.Context, b *model.Book) error {
	b.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, byID(b.ID), b)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookRepository) UpdateImage(ctx context.Context, id, imageURL string) error {
	res, err := r.coll.UpdateOne(ctx, byID(id), bson.M{"$set": bson.M{"image": imageURL, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
