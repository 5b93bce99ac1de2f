package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StructuredAddress is a decomposed delivery address. Orders embed a copy of
// one of these alongside the free-text address line.
type StructuredAddress struct {
	ID          string `bson:"id,omitempty" json:"id,omitempty"`
	Name        string `bson:"name" json:"name"`
	Phone       string `bson:"phone" json:"phone"`
	HouseNumber string `bson:"houseNumber" json:"houseNumber"`
	Street      string `bson:"street" json:"street"`
	Landmark    string `bson:"landmark,omitempty" json:"landmark,omitempty"`
	City        string `bson:"city" json:"city"`
	State       string `bson:"state" json:"state"`
	Pincode     string `bson:"pincode" json:"pincode"`
	Label       string `bson:"label" json:"label"`
	IsDefault   bool   `bson:"isDefault" json:"isDefault"`
}

// User represents the application user account.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"passwordHash" json:"-"`
	Name         string              `bson:"name" json:"name"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string              `bson:"role" json:"role"`
	Addresses    []StructuredAddress `bson:"addresses" json:"addresses"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Address labels accepted for structured addresses.
const (
	AddressLabelHome  = "home"
	AddressLabelWork  = "work"
	AddressLabelOther = "other"
)

func ValidAddressLabel(label string) bool {
	switch label {
	case AddressLabelHome, AddressLabelWork, AddressLabelOther:
		return true
	}
	return false
}
