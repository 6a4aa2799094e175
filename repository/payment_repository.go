package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/bistro-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoPaymentRepository struct {
	collection     *mongo.Collection
	menuCollection string
}

func NewPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{
		collection:     db.Collection("payments"),
		menuCollection: "menu",
	}
}

func (r *MongoPaymentRepository) Insert(ctx context.Context, payment *models.Payment) (primitive.ObjectID, error) {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, payment); err != nil {
		return primitive.NilObjectID, err
	}
	return payment.ID, nil
}

func (r *MongoPaymentRepository) FindAll(ctx context.Context) ([]models.Payment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *MongoPaymentRepository) EstimatedCount(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

type categoryRow struct {
	Category  string        `bson:"_id"`
	ItemCount int64         `bson:"itemCount"`
	Total     bson.RawValue `bson:"total"`
}

// categoryPipeline joins one row per (payment, menu item reference) pair.
// Prices are summed as Decimal128 and left unrounded: $round is half-to-even.
// A missing price counts as 0.
func (r *MongoPaymentRepository) categoryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$menuItems"}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: r.menuCollection},
			{Key: "localField", Value: "menuItems"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "menuItemsData"},
		}}},
		{{Key: "$unwind", Value: "$menuItemsData"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$menuItemsData.category"},
			{Key: "itemCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$toDecimal", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$menuItemsData.price", 0}}}}}}}},
		}}},
	}
}

func (r *MongoPaymentRepository) AggregateByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	cursor, err := r.collection.Aggregate(ctx, r.categoryPipeline())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []categoryRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	totals := make([]models.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		total, err := decimalFromRaw(row.Total)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", row.Category, err)
		}
		totals = append(totals, models.CategoryTotal{
			Category:  row.Category,
			ItemCount: row.ItemCount,
			Total:     total,
		})
	}
	return totals, nil
}

// decimalFromRaw accepts any numeric BSON value; $sum only yields Decimal128
// when at least one operand was a decimal.
func decimalFromRaw(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bsontype.Decimal128:
		return decimalFrom128(v.Decimal128())
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Null, 0:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected total type %s", v.Type)
	}
}

func decimalFrom128(d primitive.Decimal128) (decimal.Decimal, error) {
	coef, exp, err := d.BigInt()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(coef, int32(exp)), nil
}
