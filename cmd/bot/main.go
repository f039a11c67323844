package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v3"

	"telereport/internal/api"
	"telereport/internal/auth"
	"telereport/internal/config"
	"telereport/internal/database"
	"telereport/internal/handlers"
	"telereport/internal/routes"
	"telereport/internal/services"
	"telereport/internal/storage"
	"telereport/internal/workflow"
	"telereport/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to MongoDB
	log.Println("Connecting to MongoDB...")
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect(db)

	// Connect to PostgreSQL (transaction ledger)
	log.Println("Connecting to PostgreSQL...")
	pg, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer pg.Close()

	// Connect to Redis (sessions, cooldowns, rate limits)
	log.Println("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if err := storage.EnsureIndexes(context.Background(), db); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Session-secret encryption (warn if not set, but don't fail)
	var cipher *utils.Cipher
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Account session data will be stored unencrypted.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
	} else {
		cipher, err = utils.NewCipher(cfg.EncryptionKey)
		if err != nil {
			log.Printf("⚠️  WARNING: ENCRYPTION_KEY is invalid: %v", err)
			log.Println("   Key must be base64-encoded 32 bytes. Generate with: openssl rand -base64 32")
		} else {
			log.Println("✅ Encryption key configured")
		}
	}

	// Evidence uploads are optional
	var evidence *services.EvidenceService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		evidence, err = services.NewEvidenceService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			evidence = nil
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Evidence uploads will not be available")
	}

	// Stores
	userStore := storage.NewUserStore(db)
	accountStore := storage.NewAccountStore(db)
	reportStore := storage.NewReportStore(db)
	packageStore := storage.NewPackageStore(db)
	txStore := storage.NewTransactionStore(pg)

	if err := packageStore.Seed(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to seed token packages: %v", err)
	}

	// Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Fatal("Failed to create Telegram bot:", err)
	}

	// Services
	resolver := auth.NewResolver(cfg)
	notifier := services.NewTelegramNotifier(bot, cfg.ReportChannelID)
	feed := services.NewFeedHub()
	userService := services.NewUserService(userStore, resolver, cfg.FreeTokensNewUser)
	registry := services.NewRegistry(accountStore, resolver, cipher, cfg.MaxAccountsPerUser)
	review := services.NewReview(reportStore, userStore, resolver, notifier)
	payments := services.NewPayments(packageStore, txStore, userStore)
	adminSessions := services.NewAdminSessions(rdb)

	machine := &workflow.Machine{
		Users:           userStore,
		Accounts:        accountStore,
		Reports:         reportStore,
		Notify:          notifier,
		Cooldown:        workflow.NewRedisCooldown(rdb, time.Duration(cfg.ReportCooldown)*time.Second),
		Roles:           resolver,
		ReportCost:      cfg.ReportCostTokens,
		MaxReportLength: cfg.MaxReportLength,
	}

	// Telegram handlers
	botHandlers := &handlers.Bot{
		Users:           userService,
		Registry:        registry,
		Payments:        payments,
		Review:          review,
		Evidence:        evidence,
		Feed:            feed,
		Machine:         machine,
		Sessions:        workflow.NewSessionStore(rdb),
		Reports:         reportStore,
		Resolver:        resolver,
		ReportsPerPage:  cfg.ReportsPerPage,
		ContactUsername: cfg.ContactUsername,
	}
	botHandlers.Register(bot)

	// Review console
	consoleAPI := &api.API{
		Review:            review,
		Payments:          payments,
		Registry:          registry,
		Sessions:          adminSessions,
		Feed:              feed,
		AdminPasswordHash: cfg.AdminPasswordHash,
		CallerID:          cfg.SuperAdminID,
	}
	r := chi.NewRouter()
	routes.SetupRoutes(r, consoleAPI, rdb, cfg.AllowedOrigins)

	go func() {
		log.Printf("🚀 Review console listening on port %s", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
			log.Fatal("HTTP server failed:", err)
		}
	}()

	log.Println("🤖 Bot started")
	bot.Start()
}
