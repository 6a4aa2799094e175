package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type CartEntry struct {
	ID         primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email      string             `json:"email" bson:"email" validate:"required,email"`
	MenuItemID string             `json:"menuItemId" bson:"menuItemId" validate:"required"`
	Name       string             `json:"name" bson:"name"`
	Image      string             `json:"image,omitempty" bson:"image,omitempty"`
	Price      float64            `json:"price" bson:"price" validate:"gte=0"`
}
