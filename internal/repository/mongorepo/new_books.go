package mongorepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type submissionRepository struct {
	coll *mongo.Collection
}

func (r *submissionRepository) Create(ctx context.Context, nb *model.NewBook) error {
	if nb.ID == "" {
		nb.ID = uuid.NewString()
	}
	now := time.Now()
	if nb.CreatedAt.IsZero() {
		nb.CreatedAt = now
	}
	nb.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, nb)
	return translate(err)
}

func (r *submissionRepository) FindByID(ctx context.Context, id string) (*model.NewBook, error) {
	var nb model.NewBook
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&nb); err != nil {
		return nil, translate(err)
	}
	return &nb, nil
}

func (r *submissionRepository) List(ctx context.Context, librarianEmail string) ([]model.NewBook, error) {
	filter := bson.M{}
	if librarianEmail != "" {
		filter["librarianEmail"] = librarianEmail
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	list := []model.NewBook{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *submissionRepository) Review(ctx context.Context, id string, status model.NewBookStatus, bookID string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.NewBookStatusPending},
		bson.M{"$set": bson.M{"status": status, "bookId": bookID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
