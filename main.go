package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/payments"
)

func main() {
	cfg := config.Load()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("⚠️ user index warning:", err)
	}
	if err := database.EnsureFoodItemIndexes(db); err != nil {
		log.Println("⚠️ food item index warning:", err)
	}
	if err := database.EnsureOfferIndexes(db); err != nil {
		log.Println("⚠️ offer index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}
	if err := database.EnsurePaymentEventIndexes(db); err != nil {
		log.Println("⚠️ payment event index warning:", err)
	}

	provider := payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	orders := handlers.NewOrderStore(db)
	fees := handlers.FeeSchedule{
		DeliveryFee: cfg.DeliveryFee,
		PlatformFee: cfg.PlatformFee,
	}

	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/auth/register", handlers.Register(db, cfg.JWTSecret, cfg.AccessTokenTTL))
		api.POST("/auth/login", handlers.Login(db, cfg.JWTSecret, cfg.AccessTokenTTL))
		api.GET("/auth/me", middleware.UserAuth(cfg.JWTSecret), handlers.GetMe(db))

		api.POST("/shops", handlers.CreateShop(db))
		api.GET("/shops", handlers.GetShops(db))
		api.GET("/shops/:id", handlers.GetShop(db))
		api.GET("/shops/:id/menu", handlers.GetShopMenu(db))
		api.POST("/shops/:id/menu", handlers.CreateFoodItem(db))
		api.PUT("/menu/:id", handlers.UpdateFoodItem(db))
		api.DELETE("/menu/:id", handlers.DeleteFoodItem(db))

		api.GET("/offers", handlers.GetOffers(db))

		api.POST("/orders", handlers.CreateOrder(orders, fees))
		api.GET("/orders/:id", handlers.GetOrder(orders))
		api.GET("/orders/user/:userId", handlers.GetUserOrders(orders))
		api.GET("/orders/shop/:shopId", handlers.GetShopOrders(orders))
		api.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orders))

		api.POST("/payments/create-intent", handlers.CreatePaymentIntent(orders, provider, cfg.Currency))
		api.POST("/payments/confirm/:orderId", handlers.ConfirmPayment(orders, provider))
		api.GET("/payments/status/:paymentIntentId", handlers.GetPaymentStatus(provider))
		api.POST("/payments/webhook", handlers.PaymentWebhook(orders, provider))

		user := api.Group("/user")
		user.Use(middleware.UserAuth(cfg.JWTSecret))
		{
			user.GET("/addresses", handlers.GetUserAddresses(db))
			user.POST("/addresses", handlers.CreateUserAddress(db))
			user.PUT("/addresses/:id", handlers.UpdateUserAddress(db))
			user.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(cfg.JWTSecret))
		{
			admin.PATCH("/shops/:id/approval", handlers.UpdateShopApproval(db))
			admin.POST("/offers", handlers.CreateOffer(db))
		}
	}

	r.Run(":" + cfg.Port)
}
