package models

import "time"

// Order statuses. An order moves pending -> confirmed -> delivered, or is
// cancelled. Status changes happen through the administrative path only.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Delivery slots offered at checkout.
const (
	SlotMorning = "morning"
	SlotEvening = "evening"
)

var deliverySlots = []string{SlotMorning, SlotEvening}

func ValidDeliverySlot(slot string) bool {
	for _, s := range deliverySlots {
		if s == slot {
			return true
		}
	}
	return false
}

func DeliverySlots() []string {
	out := make([]string, len(deliverySlots))
	copy(out, deliverySlots)
	return out
}

// ValidStatusTransition reports whether an order may move from one status
// to another.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusDelivered || to == StatusCancelled
	default:
		return false
	}
}

// CustomerInfo is the contact block captured at checkout.
type CustomerInfo struct {
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone" json:"phone"`
	Address  string `bson:"address" json:"address"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Landmark string `bson:"landmark,omitempty" json:"landmark,omitempty"`
}

// OrderItem is a line item snapshotted at order time. It carries its own
// copy of the product name and price so later catalog edits do not alter
// historical orders.
type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"product_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Unit        string  `bson:"unit" json:"unit"`
}

// Order is the persisted record of one checkout. Created exactly once;
// never deleted by this service.
type Order struct {
	ID             string       `bson:"_id" json:"id"`
	UserID         string       `bson:"user_id" json:"user_id"`
	Customer       CustomerInfo `bson:"customer" json:"customer"`
	Items          []OrderItem  `bson:"items" json:"items"`
	DeliverySlot   string       `bson:"delivery_slot" json:"delivery_slot"`
	Instructions   string       `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Subtotal       float64      `bson:"subtotal" json:"subtotal"`
	DeliveryCharge float64      `bson:"delivery_charge" json:"delivery_charge"`
	Total          float64      `bson:"total" json:"total"`
	Status         string       `bson:"status" json:"status"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updated_at"`
}
