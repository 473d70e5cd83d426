package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "carts"

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(collectionName)}
}

// EnsureIndexes creates the lookup index used by GetActiveCart.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "active", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID, "active": true}
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	err := m.collection.FindOne(ctx, filter, opts).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *MongoRepository) ClearCart(ctx context.Context, cartID string) error {
	oid, err := primitive.ObjectIDFromHex(cartID)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrCartNotFound, cartID)
	}

	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"subtotal":   0,
			"item_count": 0,
			"active":     false,
			"updated_at": time.Now(),
		},
		"$unset": bson.M{"applied_discount": ""},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	if cart.ID.IsZero() {
		res, err := m.collection.InsertOne(ctx, cart)
		if err != nil {
			return fmt.Errorf("failed to insert cart: %w", err)
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			cart.ID = oid
		}
		return nil
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, opts); err != nil {
		return fmt.Errorf("failed to replace cart: %w", err)
	}
	return nil
}
