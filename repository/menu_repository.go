package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/bistro-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoMenuRepository struct {
	collection *mongo.Collection
}

func NewMenuRepository(db *mongo.Database) *MongoMenuRepository {
	return &MongoMenuRepository{collection: db.Collection("menu")}
}

func (r *MongoMenuRepository) FindAll(ctx context.Context) ([]models.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.MenuItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoMenuRepository) FindByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create assigns a hex id when the item has none.
func (r *MongoMenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, item)
	return err
}

func (r *MongoMenuRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoMenuRepository) EstimatedCount(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{collection: db.Collection("reviews")}
}

func (r *MongoReviewRepository) FindAll(ctx context.Context) ([]models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
