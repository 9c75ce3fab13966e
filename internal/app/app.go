package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"tgmarket/internal/config"
	"tgmarket/internal/handlers"
	"tgmarket/internal/pdf"
	"tgmarket/internal/repositories"
	"tgmarket/internal/routes"
	"tgmarket/internal/services"
	"tgmarket/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tgmarket/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	countryRepo := repositories.NewCountryRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.AlertEmail,
	)

	countryService := services.NewCountryService(countryRepo)
	settingsService := services.NewSettingsService(settingsRepo, cfg.Defaults.WaitTimeMinutes, cfg.Defaults.MasterPassword)
	pendingService := services.NewPendingService(accountRepo, cfg.Defaults.WaitTimeMinutes)

	// шлюз аутентификации Telegram (sidecar)
	gateway := utils.NewGatewayClient(
		cfg.Telegram.BaseURL,
		cfg.Telegram.APIKey,
		time.Duration(cfg.Telegram.Timeout)*time.Second,
		cfg.Telegram.DryRun,
	)

	// бот уведомлений продавцам (nil без токена)
	notifier := services.NewBotNotifier(cfg.Bot.Token, userRepo)

	verificationService := services.NewVerificationService(
		accountRepo,
		userRepo,
		countryService,
		settingsService,
		gateway,
		emailService,
	)
	approvalService := services.NewApprovalService(
		accountRepo,
		userRepo,
		countryService,
		pendingService,
		gateway,
		notifier,
	)
	approvalService.Mailer = emailService

	// PDF генератор (положи DejaVuSans.ttf в assets/fonts/DejaVuSans.ttf)
	pdfGen := pdf.NewReportGenerator(cfg.Files.RootDir, "assets/fonts/DejaVuSans.ttf")

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userRepo)
	flowHandler := handlers.NewFlowHandler(verificationService)
	pendingHandler := handlers.NewPendingHandler(pendingService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	countryHandler := handlers.NewCountryHandler(countryService)
	accountAdminHandler := handlers.NewAccountAdminHandler(accountRepo)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	reportsHandler := handlers.NewReportsHandler(accountRepo, pdfGen, emailService, cfg.Files.RootDir)

	// === Планировщик автоодобрения ===
	if cfg.Scheduler.Enabled {
		go runApprovalLoop(approvalService, time.Duration(cfg.Scheduler.IntervalMinutes)*time.Minute)
	}

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Роуты (JWT/RBAC внутри SetupRoutes)
	routes.SetupRoutes(
		router,
		authHandler,
		flowHandler,
		pendingHandler,
		approvalHandler,
		countryHandler,
		accountAdminHandler,
		settingsHandler,
		reportsHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func runApprovalLoop(approval *services.ApprovalService, interval time.Duration) {
	log.Printf("[approve][loop] запущен, период %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		if _, err := approval.ProcessPending(ctx, time.Now()); err != nil {
			log.Printf("[approve][loop][err] %v", err)
		}
		cancel()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
