package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// fakeOrderStore keeps every collection in memory so the checkout and
// payment flows can be exercised end to end without a running MongoDB.
type fakeOrderStore struct {
	customers map[primitive.ObjectID]models.User
	shops     map[primitive.ObjectID]models.Shop
	foodItems map[primitive.ObjectID]models.FoodItem
	offers    map[primitive.ObjectID]models.Offer
	orders    map[primitive.ObjectID]models.Order

	inserted int
	settled  []string
	intents  []string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		customers: map[primitive.ObjectID]models.User{},
		shops:     map[primitive.ObjectID]models.Shop{},
		foodItems: map[primitive.ObjectID]models.FoodItem{},
		offers:    map[primitive.ObjectID]models.Offer{},
		orders:    map[primitive.ObjectID]models.Order{},
	}
}

func (f *fakeOrderStore) ping(ctx context.Context) error { return nil }

func (f *fakeOrderStore) customerByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, ok := f.customers[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (f *fakeOrderStore) shopByID(ctx context.Context, id primitive.ObjectID) (models.Shop, error) {
	shop, ok := f.shops[id]
	if !ok {
		return models.Shop{}, mongo.ErrNoDocuments
	}
	return shop, nil
}

func (f *fakeOrderStore) foodItemByID(ctx context.Context, id primitive.ObjectID) (models.FoodItem, error) {
	food, ok := f.foodItems[id]
	if !ok || food.IsDeleted {
		return models.FoodItem{}, mongo.ErrNoDocuments
	}
	return food, nil
}

func (f *fakeOrderStore) offerByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return models.Offer{}, mongo.ErrNoDocuments
	}
	return offer, nil
}

func (f *fakeOrderStore) insertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	order.ID = id
	f.orders[id] = order
	f.inserted++
	return id, nil
}

func (f *fakeOrderStore) orderByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, mongo.ErrNoDocuments
	}
	return order, nil
}

func (f *fakeOrderStore) ordersBy(ctx context.Context, field string, id primitive.ObjectID, page, limit int64) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if (field == "customerId" && order.CustomerID == id) ||
			(field == "shopId" && order.ShopID == id) {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) transitionOrder(ctx context.Context, orderID primitive.ObjectID, from, to string) (models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return models.Order{}, mongo.ErrNoDocuments
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	f.orders[orderID] = order
	return order, nil
}

func (f *fakeOrderStore) recordPaymentIntent(ctx context.Context, orderID primitive.ObjectID, intentID string) error {
	order, ok := f.orders[orderID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	order.PaymentIntentID = intentID
	f.orders[orderID] = order
	f.intents = append(f.intents, intentID)
	return nil
}

func (f *fakeOrderStore) settlePayment(ctx context.Context, order models.Order, intentID, source string) (models.Order, bool, error) {
	settle, ok := settlementFor(order, intentID)
	if !ok {
		return order, false, nil
	}
	stored := f.orders[order.ID]
	stored.PaymentStatus = settle.PaymentStatus
	if settle.OrderStatus != "" {
		stored.Status = settle.OrderStatus
	}
	stored.PaymentID = intentID
	stored.PaymentIntentID = intentID
	stored.UpdatedAt = time.Now()
	f.orders[order.ID] = stored
	f.settled = append(f.settled, intentID)
	return stored, true, nil
}

func (f *fakeOrderStore) failPayment(ctx context.Context, order models.Order, intentID string) error {
	if models.TerminalPaymentStatus(order.PaymentStatus) {
		return nil
	}
	stored := f.orders[order.ID]
	stored.PaymentStatus = models.PaymentFailed
	f.orders[order.ID] = stored
	return nil
}
