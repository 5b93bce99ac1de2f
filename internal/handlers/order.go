package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	FoodItemID string `json:"foodItemId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	CustomerID string                   `json:"customerId" binding:"required"`
	ShopID     string                   `json:"shopId" binding:"required"`
	Items      []createOrderItemRequest `json:"items" binding:"required"`
	// TotalAmount is a pointer so an explicit 0 survives binding; a fully
	// discounted order with zero fees legitimately totals 0.
	TotalAmount       *float64        `json:"totalAmount" binding:"required"`
	Address           string          `json:"address" binding:"required"`
	StructuredAddress *addressRequest `json:"structuredAddress"`
	PaymentMethod     string          `json:"paymentMethod" binding:"required"`
	OfferID           string          `json:"offerId"`
	ScheduledFor      *time.Time      `json:"scheduledFor"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

/* =========================
   BUSINESS ERRORS
========================= */

type shopNotApprovedError struct {
	ShopID primitive.ObjectID
	Status string
}

func (e shopNotApprovedError) Error() string {
	return "shop is not approved"
}

type foodItemNotFoundError struct {
	FoodItemID primitive.ObjectID
}

func (e foodItemNotFoundError) Error() string {
	return "food item not found"
}

type itemShopMismatchError struct {
	FoodItemID primitive.ObjectID
}

func (e itemShopMismatchError) Error() string {
	return "food item does not belong to shop"
}

type itemUnavailableError struct {
	FoodItemID primitive.ObjectID
}

func (e itemUnavailableError) Error() string {
	return "food item is unavailable"
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(store OrderStore, fees FeeSchedule) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		if err := store.ping(c.Request.Context()); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := buildOrderFromRequest(req, time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := store.customerByID(ctx, order.CustomerID); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusBadRequest, route, "customer not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		shop, err := store.shopByID(ctx, order.ShopID)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusBadRequest, route, "shop not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if shop.ApprovalStatus != models.ShopApproved {
			respondOrderBusinessError(c, route, shopNotApprovedError{ShopID: shop.ID, Status: shop.ApprovalStatus})
			return
		}

		if err := priceOrderItems(ctx, store, &order); err != nil {
			respondOrderBusinessError(c, route, err)
			return
		}
		if err := applyOfferAndFees(ctx, store, &order, *req.TotalAmount, fees); err != nil {
			respondOrderBusinessError(c, route, err)
			return
		}

		id, err := store.insertOrder(ctx, order)
		if err != nil {
			log.Println("[ORDER] [ERROR] order insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		order.ID = id

		log.Println("[ORDER] [INFO] order created:", order.ID.Hex(), "customer:", order.CustomerID.Hex())
		c.JSON(http.StatusCreated, expandOrder(ctx, store, order))
	}
}

// priceOrderItems resolves every line against the menu, verifying shop
// ownership and availability, and computes each line price server-side.
// Runs before any write so a failing item aborts the whole request with
// nothing persisted.
func priceOrderItems(ctx context.Context, store OrderStore, order *models.Order) error {
	priced := make([]models.OrderItem, 0, len(order.Items))

	for _, item := range order.Items {
		food, err := store.foodItemByID(ctx, item.FoodItemID)
		if err == mongo.ErrNoDocuments {
			return foodItemNotFoundError{FoodItemID: item.FoodItemID}
		}
		if err != nil {
			return err
		}

		if food.ShopID != order.ShopID {
			return itemShopMismatchError{FoodItemID: item.FoodItemID}
		}
		if !food.IsAvailable {
			return itemUnavailableError{FoodItemID: item.FoodItemID}
		}

		priced = append(priced, models.OrderItem{
			FoodItemID: item.FoodItemID,
			Name:       food.Name,
			Quantity:   item.Quantity,
			Price:      roundMoney(food.Price * float64(item.Quantity)),
		})
	}

	order.Items = priced
	return nil
}

// applyOfferAndFees computes the server-side total and checks it against the
// client-claimed amount.
func applyOfferAndFees(ctx context.Context, store OrderStore, order *models.Order, claimedTotal float64, fees FeeSchedule) error {
	subtotal := orderSubtotal(order.Items)

	var discount float64
	if order.AppliedOfferID != nil {
		offer, err := store.offerByID(ctx, *order.AppliedOfferID)
		if err == mongo.ErrNoDocuments {
			return businessError("offer not found")
		}
		if err != nil {
			return err
		}
		if !offer.Usable(time.Now()) {
			return businessError("offer is not active")
		}
		if offer.ShopID != nil && *offer.ShopID != order.ShopID {
			return businessError("offer does not apply to this shop")
		}
		discount = offer.Discount(subtotal)
	}

	computed := computeOrderTotal(subtotal, discount, fees)
	if err := validateClientTotal(computed, claimedTotal); err != nil {
		return err
	}

	order.TotalAmount = computed
	return nil
}

func respondOrderBusinessError(c *gin.Context, route string, err error) {
	var notApproved shopNotApprovedError
	if errors.As(err, &notApproved) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "shop is not accepting orders",
			"shopId":         notApproved.ShopID.Hex(),
			"approvalStatus": notApproved.Status,
		})
		return
	}
	var notFound foodItemNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "food item not found",
			"foodItemId": notFound.FoodItemID.Hex(),
		})
		return
	}
	var mismatch itemShopMismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "food item does not belong to this shop",
			"foodItemId": mismatch.FoodItemID.Hex(),
		})
		return
	}
	var unavailable itemUnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "food item is currently unavailable",
			"foodItemId": unavailable.FoodItemID.Hex(),
		})
		return
	}
	var totalErr totalMismatchError
	if errors.As(err, &totalErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    totalErr.Error(),
			"expected": totalErr.Computed,
			"claimed":  totalErr.Claimed,
		})
		return
	}
	var business businessError
	if errors.As(err, &business) {
		respondWithError(c, http.StatusBadRequest, route, business.Error())
		return
	}
	log.Println("[ORDER] [ERROR] order validation failed:", err)
	respondWithError(c, http.StatusInternalServerError, route, "db error")
}

// businessError is a rule violation reported to the client as-is, as opposed
// to a storage failure which must not leak its message.
type businessError string

func (e businessError) Error() string { return string(e) }

/* =========================
   BUILD ORDER
========================= */

func buildOrderFromRequest(req createOrderRequest, now time.Time) (models.Order, error) {
	customerID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return models.Order{}, errors.New("invalid customerId")
	}
	shopID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ShopID))
	if err != nil {
		return models.Order{}, errors.New("invalid shopId")
	}

	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !models.ValidPaymentMethod(method) {
		return models.Order{}, errors.New("invalid payment method")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		foodItemID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.FoodItemID))
		if err != nil {
			return models.Order{}, fmt.Errorf("invalid foodItemId %q", item.FoodItemID)
		}
		if item.Quantity < 1 {
			return models.Order{}, errors.New("quantity must be at least 1")
		}
		items = append(items, models.OrderItem{
			FoodItemID: foodItemID,
			Quantity:   item.Quantity,
		})
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return models.Order{}, errors.New("address is required")
	}

	order := models.Order{
		CustomerID:    customerID,
		ShopID:        shopID,
		Items:         items,
		Address:       address,
		Status:        models.OrderPending,
		PaymentMethod: method,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if req.StructuredAddress != nil {
		structured, err := addressFromRequest(*req.StructuredAddress)
		if err != nil {
			return models.Order{}, err
		}
		order.StructuredAddress = &structured
	}

	if offerIDStr := strings.TrimSpace(req.OfferID); offerIDStr != "" {
		offerID, err := primitive.ObjectIDFromHex(offerIDStr)
		if err != nil {
			return models.Order{}, errors.New("invalid offerId")
		}
		order.AppliedOfferID = &offerID
	}

	if req.ScheduledFor != nil {
		if !req.ScheduledFor.After(now) {
			return models.Order{}, errors.New("scheduledFor must be in the future")
		}
		scheduled := *req.ScheduledFor
		order.ScheduledFor = &scheduled
	}

	return order, nil
}

/* =========================
   READS
========================= */

func GetOrder(store OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := store.orderByID(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		c.JSON(http.StatusOK, expandOrder(ctx, store, order))
	}
}

func GetUserOrders(store OrderStore) gin.HandlerFunc {
	return listOrders(store, "customerId", "userId")
}

func GetShopOrders(store OrderStore) gin.HandlerFunc {
	return listOrders(store, "shopId", "shopId")
}

func listOrders(store OrderStore, field, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param(param))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination params"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		orders, err := store.ordersBy(ctx, field, id, page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "orders could not be fetched"})
			return
		}
		if orders == nil {
			orders = []models.Order{}
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orders,
			"page":   page,
			"limit":  limit,
		})
	}
}

/* =========================
   STATUS TRANSITION
========================= */

// statusChangeIssue explains why an order cannot move from current to next,
// or returns "" when the change is allowed. Terminal orders get a clearer
// message than the generic transition refusal.
func statusChangeIssue(current, next string) string {
	if models.TerminalStatus(current) {
		return fmt.Sprintf("order is %s and cannot change", current)
	}
	if !models.CanTransition(current, next) {
		return fmt.Sprintf("cannot transition order from %s to %s", current, next)
	}
	return ""
}

func UpdateOrderStatus(store OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		target := strings.ToLower(strings.TrimSpace(req.Status))
		if !models.ValidOrderStatus(target) {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		order, err := store.orderByID(ctx, orderID)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// Repeating the current status is a no-op, not an error, so retried
		// requests cannot corrupt the timeline.
		if order.Status == target {
			c.JSON(http.StatusOK, expandOrder(ctx, store, order))
			return
		}

		if issue := statusChangeIssue(order.Status, target); issue != "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  issue,
				"status": order.Status,
			})
			return
		}

		updated, err := store.transitionOrder(ctx, orderID, order.Status, target)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusConflict, gin.H{"error": "order status changed concurrently, retry"})
				return
			}
			log.Println("[ORDER] [ERROR] status update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order", updated.ID.Hex(), "status:", order.Status, "->", target)
		c.JSON(http.StatusOK, expandOrder(ctx, store, updated))
	}
}

/* =========================
   EXPANSION
========================= */

// expandOrder denormalizes the customer and shop references for immediate
// client display. Lookup failures degrade to the bare ids rather than
// failing the request.
func expandOrder(ctx context.Context, store OrderStore, order models.Order) gin.H {
	out := gin.H{
		"id":            order.ID.Hex(),
		"items":         order.Items,
		"totalAmount":   order.TotalAmount,
		"address":       order.Address,
		"status":        order.Status,
		"paymentMethod": order.PaymentMethod,
		"paymentStatus": order.PaymentStatus,
		"createdAt":     order.CreatedAt,
		"updatedAt":     order.UpdatedAt,
	}
	if order.StructuredAddress != nil {
		out["structuredAddress"] = order.StructuredAddress
	}
	if order.PaymentID != "" {
		out["paymentId"] = order.PaymentID
	}
	if order.PaymentIntentID != "" {
		out["paymentIntentId"] = order.PaymentIntentID
	}
	if order.AppliedOfferID != nil {
		out["appliedOfferId"] = order.AppliedOfferID.Hex()
	}
	if order.ScheduledFor != nil {
		out["scheduledFor"] = order.ScheduledFor
	}

	if customer, err := store.customerByID(ctx, order.CustomerID); err == nil {
		out["customer"] = gin.H{
			"id":    customer.ID.Hex(),
			"name":  customer.Name,
			"email": customer.Email,
			"phone": customer.Phone,
		}
	} else {
		out["customer"] = gin.H{"id": order.CustomerID.Hex()}
	}

	if shop, err := store.shopByID(ctx, order.ShopID); err == nil {
		out["shop"] = gin.H{
			"id":      shop.ID.Hex(),
			"name":    shop.Name,
			"address": shop.Address,
			"phone":   shop.Phone,
		}
	} else {
		out["shop"] = gin.H{"id": order.ShopID.Hex()}
	}

	return out
}
