package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is the permanent record of a settled order. It is never updated once inserted.
type Payment struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email" validate:"required,email"`
	TransactionID string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	Price         float64            `json:"price" bson:"price" validate:"gt=0"`
	Quantity      int                `json:"quantity,omitempty" bson:"quantity,omitempty" validate:"gte=0"`
	Date          time.Time          `json:"date" bson:"date"`
	Status        string             `json:"status,omitempty" bson:"status,omitempty"`
	CartItems     []string           `json:"cartItems" bson:"cartItems"`
	MenuItems     []string           `json:"menuItems" bson:"menuItems"`
	ItemNames     []string           `json:"itemNames,omitempty" bson:"itemNames,omitempty"`
}

// SettlementResult reports what a settlement did. Retracted may be lower than Requested
// when some cart entries were already gone.
type SettlementResult struct {
	InsertedID primitive.ObjectID `json:"insertedId"`
	Requested  int                `json:"requestedCount"`
	Retracted  int                `json:"retractedCount"`
}

// PaymentIntentRequest carries the amount the client wants to reserve.
type PaymentIntentRequest struct {
	Price float64 `json:"price" binding:"required"`
}
