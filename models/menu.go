package models

// MenuItem ids are stored as plain strings so that payments can reference them verbatim.
type MenuItem struct {
	ID       string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name     string  `json:"name" bson:"name" validate:"required"`
	Recipe   string  `json:"recipe,omitempty" bson:"recipe,omitempty"`
	Image    string  `json:"image,omitempty" bson:"image,omitempty"`
	Category string  `json:"category" bson:"category" validate:"required"`
	Price    float64 `json:"price" bson:"price" validate:"gte=0"`
}

type Review struct {
	ID      string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name    string  `json:"name" bson:"name"`
	Details string  `json:"details" bson:"details"`
	Rating  float64 `json:"rating" bson:"rating"`
}
