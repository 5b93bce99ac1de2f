package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type createShopRequest struct {
	Name       string   `json:"name" binding:"required"`
	OwnerName  string   `json:"ownerName" binding:"required"`
	OwnerEmail string   `json:"ownerEmail" binding:"required,email"`
	Phone      string   `json:"phone"`
	Cuisine    []string `json:"cuisine"`
	Address    string   `json:"address" binding:"required"`
}

type shopApprovalRequest struct {
	ApprovalStatus string `json:"approvalStatus" binding:"required"`
}

// CreateShop registers a new shop. Shops start in the pending state and
// cannot take orders until an admin approves them.
func CreateShop(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/shops"
		defer handlePanic(c, route)

		var req createShopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		now := time.Now()
		shop := models.Shop{
			Name:           strings.TrimSpace(req.Name),
			OwnerName:      strings.TrimSpace(req.OwnerName),
			OwnerEmail:     strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
			Phone:          strings.TrimSpace(req.Phone),
			Cuisine:        models.StringList(req.Cuisine),
			Address:        strings.TrimSpace(req.Address),
			ApprovalStatus: models.ShopPending,
			IsOpen:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("shops").InsertOne(ctx, shop)
		if err != nil {
			log.Println("[SHOP] [ERROR] shop insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			shop.ID = id
		}

		log.Println("[SHOP] [INFO] shop registered:", shop.ID.Hex())
		c.JSON(http.StatusCreated, shop)
	}
}

// GetShops lists approved, open shops for customers.
func GetShops(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("shops").Find(ctx, bson.M{
			"approvalStatus": models.ShopApproved,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "shops could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		var shops []models.Shop
		if err := cursor.All(ctx, &shops); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse shops"})
			return
		}
		if shops == nil {
			shops = []models.Shop{}
		}

		c.JSON(http.StatusOK, shops)
	}
}

func GetShop(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var shop models.Shop
		if err := db.Collection("shops").FindOne(ctx, bson.M{"_id": shopID}).Decode(&shop); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}

		c.JSON(http.StatusOK, shop)
	}
}

// UpdateShopApproval is the admin decision on a registered shop.
func UpdateShopApproval(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/admin/shops/:id/approval"
		defer handlePanic(c, route)

		shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req shopApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		status := strings.ToLower(strings.TrimSpace(req.ApprovalStatus))
		if !models.ValidApprovalStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "invalid approval status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res := db.Collection("shops").FindOneAndUpdate(
			ctx,
			bson.M{"_id": shopID},
			bson.M{"$set": bson.M{
				"approvalStatus": status,
				"updatedAt":      time.Now(),
			}},
			mongoReturnUpdated(),
		)

		var shop models.Shop
		if err := res.Decode(&shop); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			log.Println("[SHOP] [ERROR] approval update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[SHOP] [INFO] shop", shop.ID.Hex(), "approval set to", status)
		c.JSON(http.StatusOK, shop)
	}
}
