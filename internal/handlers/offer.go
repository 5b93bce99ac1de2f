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

type createOfferRequest struct {
	ShopID         string     `json:"shopId"`
	Code           string     `json:"code" binding:"required"`
	Description    string     `json:"description"`
	DiscountType   string     `json:"discountType" binding:"required"`
	Value          float64    `json:"value" binding:"required,gt=0"`
	MaxDiscount    float64    `json:"maxDiscount"`
	MinOrderAmount float64    `json:"minOrderAmount"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

func CreateOffer(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/offers"
		defer handlePanic(c, route)

		var req createOfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		discountType := strings.ToLower(strings.TrimSpace(req.DiscountType))
		if discountType != models.DiscountPercent && discountType != models.DiscountFlat {
			respondWithError(c, http.StatusBadRequest, route, "discountType must be percent or flat")
			return
		}
		if discountType == models.DiscountPercent && req.Value > 100 {
			respondWithError(c, http.StatusBadRequest, route, "percent discount cannot exceed 100")
			return
		}

		offer := models.Offer{
			Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
			Description:    strings.TrimSpace(req.Description),
			DiscountType:   discountType,
			Value:          req.Value,
			MaxDiscount:    req.MaxDiscount,
			MinOrderAmount: req.MinOrderAmount,
			IsActive:       true,
			ExpiresAt:      req.ExpiresAt,
			CreatedAt:      time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if shopIDStr := strings.TrimSpace(req.ShopID); shopIDStr != "" {
			shopID, err := primitive.ObjectIDFromHex(shopIDStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid shopId")
				return
			}
			count, err := db.Collection("shops").CountDocuments(ctx, bson.M{"_id": shopID})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if count == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			offer.ShopID = &shopID
		}

		res, err := db.Collection("offers").InsertOne(ctx, offer)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "offer code already exists")
				return
			}
			log.Println("[OFFER] [ERROR] offer insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			offer.ID = id
		}

		c.JSON(http.StatusCreated, offer)
	}
}

// GetOffers lists active, unexpired offers, optionally limited to one shop.
func GetOffers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{
			"isActive": true,
			"$or": []bson.M{
				{"expiresAt": bson.M{"$exists": false}},
				{"expiresAt": nil},
				{"expiresAt": bson.M{"$gt": time.Now()}},
			},
		}

		if shopIDStr := c.Query("shopId"); shopIDStr != "" {
			shopID, err := primitive.ObjectIDFromHex(shopIDStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shopId"})
				return
			}
			filter["$and"] = []bson.M{
				{"$or": []bson.M{{"shopId": shopID}, {"shopId": nil}, {"shopId": bson.M{"$exists": false}}}},
			}
		}

		cursor, err := db.Collection("offers").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "offers could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		var offers []models.Offer
		if err := cursor.All(ctx, &offers); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse offers"})
			return
		}
		if offers == nil {
			offers = []models.Offer{}
		}

		c.JSON(http.StatusOK, offers)
	}
}
