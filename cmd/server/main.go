package main

import (
	"log"
	"os"
	"strings"
	"time"

	"go-pos-ledger/internal/database"
	"go-pos-ledger/internal/handlers"
	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/notify"
	"go-pos-ledger/internal/persist"
	"go-pos-ledger/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	database.Connect()

	// --- Persistence fan-out: local store always, remote + folder when configured ---
	store := database.NewStore(database.DB)
	destinations := []persist.Destination{store}
	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		destinations = append(destinations, persist.NewRemoteAPI(baseURL))
		log.Println("✅ Remote sync enabled: " + baseURL)
	}
	if dir := os.Getenv("EXPORT_DIR"); dir != "" {
		destinations = append(destinations, persist.NewFolderExport(dir))
		log.Println("✅ Folder export enabled: " + dir)
	}
	fanout := persist.NewFanout(logger, destinations...)
	defer fanout.Close()

	// --- The Ledger Engine, seeded from whatever the local store remembers ---
	shopID := utils.ShopID()
	engine := ledger.New(shopID, fanout, logger)
	engine.Seed(store.LoadBackup(shopID))
	log.Println("✅ Ledger loaded for " + shopID)

	// SMS notifications ride on the engine's credit hook, fire-and-forget
	sms := notify.NewSMSSender(os.Getenv("SMS_GATEWAY_URL"), logger)
	engine.OnCredit(sms.Notify)

	handlers.Init(engine)

	r := gin.Default()

	// CORS for the React frontend during development
	allowedOrigins := []string{"http://localhost:5173"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		allowedOrigins = strings.Split(env, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", handlers.Login)

	// --- FEATURE FLAG: Admin Registration ---
	// Only opens if we explicitly allow it in .env
	if os.Getenv("ALLOW_REGISTRATION") == "true" {
		r.POST("/register", handlers.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// PUBLIC TO STAFF & ADMIN
		api.GET("/system/status", handlers.GetSystemStatus)

		api.GET("/products", handlers.GetProducts)
		api.GET("/customers", handlers.GetCustomers)
		api.POST("/customers", handlers.AddCustomer)
		api.PUT("/customers/:id", handlers.UpdateCustomer)
		api.POST("/customers/:id/payments", handlers.RecordPayment)
		api.POST("/customers/:id/credit", handlers.GiveCredit)

		api.POST("/checkout", handlers.Checkout)
		api.GET("/transactions", handlers.GetTransactions)
		api.DELETE("/transactions/:id", handlers.DeleteTransaction)
		api.GET("/orders", handlers.GetOrders)
		api.PUT("/orders/:id/status", handlers.UpdateOrderStatus)

		api.GET("/categories", handlers.GetCategories)
		api.GET("/charge-rules", handlers.GetChargeRules)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/products", handlers.AddProduct)
			admin.PUT("/products/:id", handlers.UpdateProduct)
			admin.DELETE("/products/:id", handlers.DeleteProduct)
			admin.DELETE("/customers/:id", handlers.DeleteCustomer)

			admin.POST("/categories", handlers.AddCategory)
			admin.DELETE("/categories/:name", handlers.DeleteCategory)
			admin.POST("/charge-rules", handlers.AddChargeRule)
			admin.PUT("/charge-rules/:id", handlers.UpdateChargeRule)
			admin.DELETE("/charge-rules/:id", handlers.DeleteChargeRule)

			admin.GET("/reports", handlers.GetSalesReport)
			admin.GET("/reports/valuation", handlers.GetStockValuation)

			admin.GET("/backup", handlers.ExportBackup)
			admin.POST("/restore", handlers.ImportBackup)

			admin.POST("/ai/scan-invoice", handlers.ScanInvoice)
			admin.GET("/ai/restock", handlers.RestockSuggestions)
		}
	}

	// --- DEPLOYMENT: Serve React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: If the user refreshes on "/dashboard",
	// serve index.html so React can handle the routing.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Server starting on :" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
