package mongorepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentRepository struct {
	coll *mongo.Collection
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var p model.Payment
	if err := r.coll.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *paymentRepository) List(ctx context.Context, customerEmail string) ([]model.Payment, error) {
	filter := bson.M{}
	if customerEmail != "" {
		filter["customerEmail"] = customerEmail
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "paidAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	list := []model.Payment{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
