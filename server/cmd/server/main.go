package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/Krimson/guardian/server/docs" // Swagger docs
	"github.com/Krimson/guardian/server/internal/alert"
	"github.com/Krimson/guardian/server/internal/config"
	"github.com/Krimson/guardian/server/internal/contact"
	"github.com/Krimson/guardian/server/internal/notify"
	"github.com/Krimson/guardian/server/internal/presence"
	"github.com/Krimson/guardian/server/internal/user"
	"github.com/Krimson/guardian/server/internal/ws"
)

// @title Guardian Safety API
// @version 1.0
// @description Backend персональной системы безопасности: прием SOS алертов
// @description и рассылка по независимым каналам (SMS оператору с fallback,
// @description SMS экстренным контактам, push ближайшим устройствам, email).
// @contact.name API Support
// @contact.email support@guardian-safety.dev
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
// @schemes http

func main() {
	// 1. Загрузка конфигурации
	cfg := config.Load()

	// 2. Инициализация логгера
	logger, err := initLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting guardian server",
		zap.String("http_port", cfg.HTTPPort),
		zap.Float64("radius_meters", cfg.RadiusMeters),
	)

	// 3. PostgreSQL (алерты, контакты, пользователи)
	db, err := openPostgres(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	alertRepo := alert.NewPostgresRepository(db, logger)
	contactRepo := contact.NewPostgresRepository(db, logger)
	userRepo := user.NewPostgresRepository(db, logger)

	// 4. Redis (регистрации устройств)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	presenceStore := presence.NewRedisStore(redisClient, logger)
	selector := presence.NewSelector(presenceStore, logger)

	// 5. Провайдеры уведомлений: клиенты создаются один раз на старте
	// и передаются диспетчеру явно
	smsSender := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger)
	pushSender := notify.NewExpoPushSender(logger)
	emailSender := notify.NewSMTPEmailSender(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
		cfg.EmailFrom, cfg.EmailFromName, logger,
	)

	// 6. Websocket фид
	hub := ws.NewHub(logger)
	go hub.Run()

	// 7. Диспетчер и сервис алертов
	resolver := contact.NewResolver(userRepo, contactRepo, logger)
	dispatcher := alert.NewDispatcher(
		alertRepo, resolver, userRepo, selector,
		smsSender, pushSender, emailSender, hub,
		alert.DispatcherConfig{
			OperatorNumber:    cfg.OperatorSMSNumber,
			FromNumber:        cfg.TwilioFromNumber,
			StatusCallbackURL: cfg.SMSStatusCallback,
			EmailTo:           cfg.AlertEmailTo,
			RadiusMeters:      cfg.RadiusMeters,
		},
		logger,
	)
	alertService := alert.NewService(alertRepo, dispatcher, hub, cfg.AlertListLimit, logger)

	// 8. HTTP маршруты
	router := mux.NewRouter()

	alert.NewHTTPHandler(alertService, logger).RegisterRoutes(router)
	contact.NewHTTPHandler(contactRepo, logger).RegisterRoutes(router)
	presence.NewHTTPHandler(presenceStore, logger).RegisterRoutes(router)

	router.HandleFunc("/ws", hub.HandleWebSocket)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DomID("swagger-ui"),
	))

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// 9. Запуск и graceful shutdown
	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErrChan:
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Guardian server stopped")
}

// initLogger инициализирует логгер
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogFormat == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openPostgres открывает соединение с настройками пула
func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
