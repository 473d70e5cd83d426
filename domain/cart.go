package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID int64     `bson:"product_id" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}

// AppliedDiscount is the envelope attached to a cart once a coupon has been validated.
type AppliedDiscount struct {
	Code   string  `bson:"code" json:"code"`
	Amount float64 `bson:"amount" json:"amount"`
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	Discount  *AppliedDiscount   `bson:"applied_discount,omitempty" json:"appliedDiscount,omitempty"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
	ItemCount int                `bson:"item_count" json:"itemCount"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
