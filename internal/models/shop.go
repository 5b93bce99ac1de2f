package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Approval states for a registered shop. Orders are only accepted against
// approved shops.
const (
	ShopPending  = "pending"
	ShopApproved = "approved"
	ShopRejected = "rejected"
)

type Shop struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	OwnerName      string             `bson:"ownerName" json:"ownerName"`
	OwnerEmail     string             `bson:"ownerEmail" json:"ownerEmail"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Cuisine        StringList         `bson:"cuisine" json:"cuisine"`
	Address        string             `bson:"address" json:"address"`
	ApprovalStatus string             `bson:"approvalStatus" json:"approvalStatus"`
	IsOpen         bool               `bson:"isOpen" json:"isOpen"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func ValidApprovalStatus(status string) bool {
	switch status {
	case ShopPending, ShopApproved, ShopRejected:
		return true
	}
	return false
}
