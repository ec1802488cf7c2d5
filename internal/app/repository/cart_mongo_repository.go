package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartItemsCollection = "cart_items"

// mongoCartItem is one line item document; one document per (user, product).
type mongoCartItem struct {
	UserID    uint      `bson:"user_id"`
	ProductID uint      `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d mongoCartItem) toModel() model.CartItem {
	return model.CartItem{
		UserID:    d.UserID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ConnectMongoDB opens a client and returns the named database.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

type MongoCartRepository struct {
	collection *mongo.Collection
}

// NewMongoCartRepository stores cart lines in db. Call EnsureIndexes once at
// startup; the unique index is what makes Upsert race-free.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(cartItemsCollection)}
}

func (m *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_product"),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}

func (m *MongoCartRepository) FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		logger.Error("Failed to find cart items in mongo", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("failed to find cart items: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoCartItem
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}

	items := make([]model.CartItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}
	return items, nil
}

func (m *MongoCartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error) {
	var doc mongoCartItem
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID, "product_id": productID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	item := doc.toModel()
	return &item, nil
}

// Upsert increments the line with $inc in one FindOneAndUpdate. The cap is
// part of the filter, so an update that would exceed it matches nothing and
// no over-limit quantity is ever written. With upsert on, a miss tries an
// insert, which the unique index rejects with E11000 when the line exists:
// either a concurrent first insert won, or the line is too full. One retry
// tells the two apart.
func (m *MongoCartRepository) Upsert(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Debug("Upserting cart item in mongo", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity > model.MaxLineItemQuantity {
		return nil, ErrQuantityLimitExceeded
	}

	filter := bson.M{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   bson.M{"$lte": model.MaxLineItemQuantity - quantity},
	}
	now := time.Now()
	update := bson.M{
		"$inc":         bson.M{"quantity": quantity},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc mongoCartItem
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if mongo.IsDuplicateKeyError(err) {
			logger.Debug("Cart line at quantity limit", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, ErrQuantityLimitExceeded
		}
	}
	if err != nil {
		logger.Error("Failed to upsert cart item in mongo", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	item := doc.toModel()
	return &item, nil
}

func (m *MongoCartRepository) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*model.CartItem, error) {
	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{"$set": bson.M{"quantity": quantity, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoCartItem
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	item := doc.toModel()
	return &item, nil
}

func (m *MongoCartRepository) Delete(ctx context.Context, userID, productID uint) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (m *MongoCartRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		logger.Error("Failed to clear cart in mongo", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
