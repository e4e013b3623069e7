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

type orderRepository struct {
	coll *mongo.Collection
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, o)
	return translate(err)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error) {
	return r.list(ctx, bson.M{"buyerEmail": buyerEmail})
}

func (r *orderRepository) ListByLibrarian(ctx context.Context, librarianEmail string) ([]model.Order, error) {
	return r.list(ctx, bson.M{"librarianEmail": librarianEmail})
}

func (r *orderRepository) list(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	list := []model.Order{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id, trackingID, transactionID string, paidAt time.Time) (bool, error) {
	return r.transition(ctx, bson.M{"_id": id, "status": model.OrderStatusPending}, bson.M{
		"status":        model.OrderStatusPaid,
		"paymentStatus": model.PaymentStatusPaid,
		"trackingId":    trackingID,
		"transactionId": transactionID,
		"paidAt":        paidAt,
	})
}

func (r *orderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	return r.transition(ctx, bson.M{"_id": id, "status": model.OrderStatusPending}, bson.M{
		"status": model.OrderStatusCancelled,
	})
}

func (r *orderRepository) UpdateDeliveryStatus(ctx context.Context, id string, from, to model.DeliveryStatus) (bool, error) {
	return r.transition(ctx, bson.M{"_id": id, "status": model.OrderStatusPaid, "deliveryStatus": from}, bson.M{
		"deliveryStatus": to,
	})
}

func (r *orderRepository) transition(ctx context.Context, filter, set bson.M) (bool, error) {
	set["updatedAt"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

var _ repository.OrderRepository = (*orderRepository)(nil)
