package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// MongoUserRepository stores users and their wardrobes as documents.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository returns a repository over the users collection of
// db, creating the unique username index if it is missing.
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (*MongoUserRepository, error) {
	coll := db.Collection(usersCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create username index: %w", err)
	}
	return &MongoUserRepository{coll: coll}, nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	var user types.User
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if user.Shirts == nil {
		user.Shirts = types.Wardrobe{}
	}
	if user.Pants == nil {
		user.Pants = types.Wardrobe{}
	}
	return user, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Shirts == nil {
		user.Shirts = types.Wardrobe{}
	}
	if user.Pants == nil {
		user.Pants = types.Wardrobe{}
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// PutWardrobeItem sets a single dotted field, leaving every other wardrobe
// key untouched.
func (r *MongoUserRepository) PutWardrobeItem(ctx context.Context, username string, category types.Category, color, imageURL string) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	update := bson.M{"$set": bson.M{
		category.Field() + "." + color: imageURL,
		"updated_at":                   time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
