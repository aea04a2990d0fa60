package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"CarrierDesk/internal/api"
	"CarrierDesk/internal/auth"
	"CarrierDesk/internal/booking"
	"CarrierDesk/internal/calllog"
	"CarrierDesk/internal/config"
	"CarrierDesk/internal/load"
	"CarrierDesk/internal/negotiation"
	"CarrierDesk/internal/observability/alerting"
	"CarrierDesk/internal/storage/mysql"
	"CarrierDesk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "path to the YAML config file")
	seedPath := flag.String("seed", "", "optional YAML file of loads to upsert at startup")
	flag.Parse()

	if err := run(ctx, *configPath, *seedPath); err != nil {
		log.Fatalf("carrierdeskd failed: %v", err)
	}
}

func run(ctx context.Context, configPath, seedPath string) error {
	if configPath == "" {
		configPath = os.Getenv("CARRIERDESK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("configs", "carrierdesk.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: cfg.Logging.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer logger.Sync()

	loadRepo, callLogStore, closeStorage, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	if seedPath != "" {
		count, err := load.Seed(ctx, loadRepo, seedPath)
		if err != nil {
			return err
		}
		logger.L().Info("seeded loads", slog.Int("count", count), slog.String("file", seedPath))
	}

	queue, err := buildBookingQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.L().Error("failed to close booking queue", slog.Any("error", err))
		}
	}()

	journal, err := booking.OpenJournal(cfg.Booking.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	alerter := alerting.NewFanout(&alerting.LogNotifier{})
	processor := booking.NewProcessor(queue, journal,
		booking.WithWorkerCount(cfg.Booking.Workers),
		booking.WithProcessorLogger(logger.Named("booking")),
		booking.WithAlertDispatcher(alerter),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()
	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("booking processor exited", slog.Any("error", err))
		}
	}()

	negotiatorOpts := []negotiation.ServiceOption{
		negotiation.WithBookingProducer(queue),
		negotiation.WithRepositoryTimeout(time.Duration(cfg.Negotiation.RepositoryTimeoutSeconds) * time.Second),
		negotiation.WithServiceLogger(logger.Named("negotiation")),
	}
	if cfg.Negotiation.Strategy == "jitter" {
		negotiatorOpts = append(negotiatorOpts,
			negotiation.WithStrategy(negotiation.NewJitterStrategy(time.Now().UnixNano())))
	}
	negotiator := negotiation.NewService(loadRepo, negotiatorOpts...)

	authSvc, err := auth.NewService(auth.Mode(cfg.Auth.Mode), cfg.Auth.APIKey)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Config{
		Address:           cfg.Server.Address,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
		ShutdownTimeout:   time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		Negotiator:        negotiator,
		Loads:             loadRepo,
		CallLogs:          calllog.NewService(callLogStore),
		Journal:           journal,
		Auth:              authSvc,
	})

	logger.L().Info("carrierdeskd listening", slog.String("address", cfg.Server.Address))
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildStorage(ctx context.Context, cfg *config.Config) (load.Repository, calllog.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		return load.NewMemoryRepository(), calllog.NewMemoryStore(), func() {}, nil
	case "mysql":
		handle, err := mysql.Open(ctx, mysql.Config{
			DSN:             cfg.Storage.MySQL.DSN,
			MaxOpenConns:    cfg.Storage.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MySQL.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.MySQL.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Storage.MySQL.ConnMaxIdleTimeSeconds) * time.Second,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		closer := func() {
			if err := handle.Close(); err != nil {
				logger.L().Error("failed to close mysql handle", slog.Any("error", err))
			}
		}
		return mysql.NewLoadRepository(handle), mysql.NewCallLogStore(handle), closer, nil
	default:
		return nil, nil, nil, errors.New("unsupported storage driver: " + cfg.Storage.Driver)
	}
}

func buildBookingQueue(cfg *config.Config) (booking.Queue, error) {
	switch cfg.Booking.QueueDriver {
	case "memory":
		return booking.NewMemoryQueue(1024), nil
	case "redis":
		return booking.NewRedisQueue(booking.RedisQueueConfig{
			Address:   cfg.Booking.Redis.Address,
			Password:  cfg.Booking.Redis.Password,
			DB:        cfg.Booking.Redis.DB,
			Queue:     cfg.Booking.Redis.Queue,
			BlockWait: time.Duration(cfg.Booking.Redis.BlockWaitSeconds) * time.Second,
		})
	case "rabbitmq":
		return booking.NewRabbitMQQueue(booking.RabbitMQConfig{
			URL:        cfg.Booking.RabbitMQ.URL,
			Queue:      cfg.Booking.RabbitMQ.Queue,
			Prefetch:   cfg.Booking.RabbitMQ.Prefetch,
			Durable:    cfg.Booking.RabbitMQ.Durable,
			AutoDelete: cfg.Booking.RabbitMQ.AutoDelete,
		})
	default:
		return nil, errors.New("unsupported booking queue driver: " + cfg.Booking.QueueDriver)
	}
}
