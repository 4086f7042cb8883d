package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/config"
	"github.com/nimasrn/admissions-inbox/internal/handlers"
	"github.com/nimasrn/admissions-inbox/internal/repository"
	"github.com/nimasrn/admissions-inbox/internal/services"
	xhttp "github.com/nimasrn/admissions-inbox/pkg/http"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"github.com/nimasrn/admissions-inbox/pkg/prom"
	"github.com/nimasrn/admissions-inbox/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	// transport (tcp for now)
	opts := xhttp.DefaultServerOption
	if v := config.Get().HttpServerReadTimeout; v > 0 {
		opts.ReadTimeout = time.Duration(v) * time.Millisecond
	}
	if v := config.Get().HttpServerWriteTimeout; v > 0 {
		opts.WriteTimeout = time.Duration(v) * time.Millisecond
	}
	opts.ReadBufferSize = 1024 * 16
	opts.WriteBufferSize = 1024 * 16
	if v := config.Get().HttpServerReadBufferSize; v > 0 {
		opts.ReadBufferSize = v
	}
	if v := config.Get().HttpServerWriteBufferSize; v > 0 {
		opts.WriteBufferSize = v
	}
	s := xhttp.NewServer(opts)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(config.Get().HttpRequestTimeout))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(config.Get().PostgresRead(), config.Get().PostgresWrite(), pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if addr := config.Get().AppDebugMetricsAddr; addr != "" {
		go prom.ListenAndServer(addr, config.Get().AppDebugMetricsURI)
	}

	tenantRepo := repository.NewTenantRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	scheduledRepo := repository.NewScheduledMessageRepository(db)
	attemptRepo := repository.NewDeliveryAttemptRepository(db)

	// services
	authorizer := services.NewTenantAuthorizer(tenantRepo, redisAdap, config.Get().AuthCacheTTL)
	tenancy := services.NewTenancyValidator(conversationRepo)
	conversationService := services.NewConversationService(conversationRepo, messageRepo, db, tenancy, authorizer)
	scheduleService := services.NewScheduleService(scheduledRepo, attemptRepo, tenancy, authorizer)
	healthService := services.NewHealthService(map[string]services.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	})

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterConversationRoutes(g, handlers.NewConversationHandler(conversationService))
	handlers.RegisterScheduledMessageRoutes(g, handlers.NewScheduledMessageHandler(scheduleService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
	logger.Sync()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
