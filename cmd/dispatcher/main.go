package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/admissions-inbox/internal/config"
	"github.com/nimasrn/admissions-inbox/internal/dispatch"
	gateway "github.com/nimasrn/admissions-inbox/internal/gateways"
	"github.com/nimasrn/admissions-inbox/internal/repository"
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
	logger.Info("starting dispatcher", "version", version, "commit", commit, "date", date)

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

	gwConf := gateway.DefaultConfig(config.Get().GatewayURL, config.Get().GatewayToken)
	gwConf.Timeout = config.Get().GatewayTimeout
	gwConf.Rate = config.Get().GatewayRate
	gwConf.Burst = config.Get().GatewayBurst
	client, err := gateway.NewClient(gwConf)
	if err != nil {
		logger.Error("failed to create gateway", "error", err)
		return
	}

	dispatcher := dispatch.NewDispatcher(dispatch.Dependencies{
		Store:         repository.NewScheduledMessageRepository(db),
		Tenants:       repository.NewTenantRepository(db),
		Sender:        client,
		Messages:      repository.NewMessageRepository(db),
		Conversations: repository.NewConversationRepository(db),
		Attempts:      repository.NewDeliveryAttemptRepository(db),
	}, dispatch.Config{
		BatchLimit:  config.Get().DispatchBatchLimit,
		MaxAttempts: config.Get().DispatchMaxAttempts,
		Concurrency: config.Get().DispatchConcurrency,
		ClaimTTL:    config.Get().DispatchClaimTTL,
		SendTimeout: config.Get().DispatchSendTimeout,
	})

	lease := dispatch.NewLease(redisAdap, dispatch.CycleLeaseKey, config.Get().DispatchLeaseTTL)
	runner := dispatch.NewRunner(dispatcher, lease, config.Get().DispatchInterval)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		addr := config.Get().AppDebugMetricsAddr
		if addr == "" {
			addr = ":9100"
		}
		prom.ListenAndServer(addr, config.Get().AppDebugMetricsURI)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	runner.Start()

	<-c
	runner.Stop()
	logger.Info("gateway client stats", "stats", client.Stats())
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
