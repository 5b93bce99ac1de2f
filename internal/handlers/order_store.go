package handlers

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// OrderStore is the storage surface the order and payment handlers run on.
// Runtime always uses the mongo-backed implementation from NewOrderStore;
// tests substitute an in-memory fake so the checkout and reconciliation
// flows can be exercised without a running MongoDB.
type OrderStore interface {
	ping(ctx context.Context) error

	customerByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	shopByID(ctx context.Context, id primitive.ObjectID) (models.Shop, error)
	// foodItemByID excludes soft-deleted items.
	foodItemByID(ctx context.Context, id primitive.ObjectID) (models.FoodItem, error)
	offerByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error)

	insertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error)
	orderByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ordersBy(ctx context.Context, field string, id primitive.ObjectID, page, limit int64) ([]models.Order, error)
	// transitionOrder moves the order from one status to another, filtering
	// on the status the caller read. mongo.ErrNoDocuments means a concurrent
	// transition won the write.
	transitionOrder(ctx context.Context, orderID primitive.ObjectID, from, to string) (models.Order, error)

	recordPaymentIntent(ctx context.Context, orderID primitive.ObjectID, intentID string) error
	settlePayment(ctx context.Context, order models.Order, intentID, source string) (models.Order, bool, error)
	failPayment(ctx context.Context, order models.Order, intentID string) error
}

func NewOrderStore(db *mongo.Database) OrderStore {
	return &mongoOrderStore{db: db}
}

type mongoOrderStore struct {
	db *mongo.Database
}

func (s *mongoOrderStore) ping(ctx context.Context) error {
	return ensureDBConnection(ctx, s.db)
}

func (s *mongoOrderStore) customerByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	return user, err
}

func (s *mongoOrderStore) shopByID(ctx context.Context, id primitive.ObjectID) (models.Shop, error) {
	var shop models.Shop
	err := s.db.Collection("shops").FindOne(ctx, bson.M{"_id": id}).Decode(&shop)
	return shop, err
}

func (s *mongoOrderStore) foodItemByID(ctx context.Context, id primitive.ObjectID) (models.FoodItem, error) {
	var food models.FoodItem
	err := s.db.Collection("fooditems").FindOne(ctx, bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&food)
	return food, err
}

func (s *mongoOrderStore) offerByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	var offer models.Offer
	err := s.db.Collection("offers").FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	return offer, err
}

func (s *mongoOrderStore) insertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s *mongoOrderStore) orderByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, err
}

func (s *mongoOrderStore) ordersBy(ctx context.Context, field string, id primitive.ObjectID, page, limit int64) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.db.Collection("orders").Find(ctx, bson.M{field: id}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *mongoOrderStore) transitionOrder(ctx context.Context, orderID primitive.ObjectID, from, to string) (models.Order, error) {
	// Filtering on the status just read makes the write a compare-and-set:
	// a concurrent transition invalidates this one instead of being
	// silently overwritten.
	res := s.db.Collection("orders").FindOneAndUpdate(
		ctx,
		bson.M{"_id": orderID, "status": from},
		bson.M{"$set": bson.M{
			"status":    to,
			"updatedAt": time.Now(),
		}},
		mongoReturnUpdated(),
	)

	var updated models.Order
	if err := res.Decode(&updated); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *mongoOrderStore) recordPaymentIntent(ctx context.Context, orderID primitive.ObjectID, intentID string) error {
	s.appendPaymentEvent(ctx, orderID, intentID, models.EventIntentCreated, models.SourceAPI)

	_, err := s.db.Collection("orders").UpdateByID(ctx, orderID, bson.M{
		"$set": bson.M{
			"paymentIntentId": intentID,
			"updatedAt":       time.Now(),
		},
	})
	return err
}

// settlePayment applies a succeeded intent to the order's cached payment
// fields. The write filters on a not-yet-paid paymentStatus, so when the
// synchronous confirm path and the webhook race over the same intent only
// one of them writes and extends the ledger; the loser re-reads the
// winner's projection.
func (s *mongoOrderStore) settlePayment(ctx context.Context, order models.Order, intentID, source string) (models.Order, bool, error) {
	settle, ok := settlementFor(order, intentID)
	if !ok {
		return order, false, nil
	}

	set := bson.M{
		"paymentStatus":   settle.PaymentStatus,
		"paymentId":       intentID,
		"paymentIntentId": intentID,
		"updatedAt":       time.Now(),
	}
	if settle.OrderStatus != "" {
		set["status"] = settle.OrderStatus
	}

	res := s.db.Collection("orders").FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":           order.ID,
			"paymentStatus": bson.M{"$nin": bson.A{models.PaymentPaid, models.PaymentRefunded}},
		},
		bson.M{"$set": set},
		mongoReturnUpdated(),
	)

	var updated models.Order
	err := res.Decode(&updated)
	if err == mongo.ErrNoDocuments {
		current, rerr := s.orderByID(ctx, order.ID)
		if rerr != nil {
			return models.Order{}, false, rerr
		}
		return current, false, nil
	}
	if err != nil {
		return models.Order{}, false, err
	}

	s.appendPaymentEvent(ctx, updated.ID, intentID, models.EventSucceeded, source)
	return updated, true, nil
}

// failPayment records a failed payment. Order status is left alone; the
// customer can retry payment on a still-pending order.
func (s *mongoOrderStore) failPayment(ctx context.Context, order models.Order, intentID string) error {
	if models.TerminalPaymentStatus(order.PaymentStatus) {
		return nil
	}

	res, err := s.db.Collection("orders").UpdateOne(
		ctx,
		bson.M{
			"_id":           order.ID,
			"paymentStatus": bson.M{"$nin": bson.A{models.PaymentPaid, models.PaymentRefunded}},
		},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentFailed,
			"updatedAt":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		s.appendPaymentEvent(ctx, order.ID, intentID, models.EventFailed, models.SourceWebhook)
	}
	return nil
}

// appendPaymentEvent extends the append-only payment ledger. The order's
// inline payment fields are a cached projection of this log; a failed
// append is logged but does not abort the projection update.
func (s *mongoOrderStore) appendPaymentEvent(ctx context.Context, orderID primitive.ObjectID, intentID, eventType, source string) {
	event := models.PaymentEvent{
		OrderID:      orderID,
		IntentID:     intentID,
		EventType:    eventType,
		Source:       source,
		ProcessorRef: intentID,
		CreatedAt:    time.Now(),
	}
	if _, err := s.db.Collection("payment_events").InsertOne(ctx, event); err != nil {
		log.Println("[PAYMENT] [ERROR] ledger append failed:", err)
	}
}
