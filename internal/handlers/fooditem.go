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

type foodItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    []string `json:"category"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	IsVeg       bool     `json:"isVeg"`
	IsAvailable *bool    `json:"isAvailable"`
}

func CreateFoodItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/shops/:id/menu"
		defer handlePanic(c, route)

		shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop id"})
			return
		}

		var req foodItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("shops").CountDocuments(ctx, bson.M{"_id": shopID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}

		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}

		item := models.FoodItem{
			ShopID:      shopID,
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			Category:    models.StringList(req.Category),
			Price:       req.Price,
			IsVeg:       req.IsVeg,
			IsAvailable: available,
			CreatedAt:   time.Now(),
		}

		res, err := db.Collection("fooditems").InsertOne(ctx, item)
		if err != nil {
			log.Println("[MENU] [ERROR] food item insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			item.ID = id
		}

		c.JSON(http.StatusCreated, item)
	}
}

func GetShopMenu(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("fooditems").Find(ctx, bson.M{
			"shopId":    shopID,
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "menu could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		var items []models.FoodItem
		if err := cursor.All(ctx, &items); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse menu"})
			return
		}
		if items == nil {
			items = []models.FoodItem{}
		}

		c.JSON(http.StatusOK, items)
	}
}

func UpdateFoodItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/menu/:id"
		defer handlePanic(c, route)

		itemID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req foodItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{
			"name":        strings.TrimSpace(req.Name),
			"description": strings.TrimSpace(req.Description),
			"category":    models.StringList(req.Category),
			"price":       req.Price,
			"isVeg":       req.IsVeg,
		}
		if req.IsAvailable != nil {
			update["isAvailable"] = *req.IsAvailable
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res := db.Collection("fooditems").FindOneAndUpdate(
			ctx,
			bson.M{"_id": itemID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": update},
			mongoReturnUpdated(),
		)

		var item models.FoodItem
		if err := res.Decode(&item); err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "food item not found"})
				return
			}
			log.Println("[MENU] [ERROR] food item update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

// DeleteFoodItem soft-deletes so past orders keep resolving their items.
func DeleteFoodItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("fooditems").UpdateOne(
			ctx,
			bson.M{"_id": itemID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{
				"isDeleted":   true,
				"isAvailable": false,
				"deletedAt":   now,
			}},
		)
		if err != nil {
			log.Println("[MENU] [ERROR] food item delete failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "food item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "food item deleted"})
	}
}
